// Package cmd contains the wallet commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
)

var (
	walletName string
	walletPath string
	url        string
)

const walletExtension = ".json"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage keys and send coin on the chain",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "miner"+walletExtension, "Name of the wallet file.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with wallet files.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func walletFile() string {
	name := walletName
	if !strings.HasSuffix(name, walletExtension) {
		name += walletExtension
	}
	return filepath.Join(walletPath, name)
}

// =============================================================================

// getJSON performs a GET against the node API with retries, decoding the
// response into v.
func getJSON(path string, v any) error {
	op := func() error {
		resp, err := http.Get(url + path)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("node returned %s", resp.Status)
		}

		return json.NewDecoder(resp.Body).Decode(v)
	}

	return backoff.Retry(op, retryPolicy())
}

// postJSON performs a POST against the node API with retries, decoding the
// response into v when v is not nil.
func postJSON(path string, payload any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	op := func() error {
		resp, err := http.Post(url+path, "application/json", bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var er struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
				return backoff.Permanent(fmt.Errorf("node rejected the request: %s", er.Error))
			}
			return fmt.Errorf("node returned %s", resp.Status)
		}

		if v == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(v)
	}

	return backoff.Retry(op, retryPolicy())
}

func retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second

	return policy
}
