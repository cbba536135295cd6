// Package wallet manages Dilithium key pairs stored as JSON files on disk.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

// Wallet holds a hex encoded key pair. The public key doubles as the account
// address on the chain.
type Wallet struct {
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

// Generate creates a new key pair.
func Generate() (Wallet, error) {
	public, secret, err := signature.GenerateKeys()
	if err != nil {
		return Wallet{}, fmt.Errorf("generate keys: %w", err)
	}

	return Wallet{PublicKey: public, SecretKey: secret}, nil
}

// Load reads a wallet file from disk.
func Load(path string) (Wallet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Wallet{}, err
	}

	var w Wallet
	if err := json.Unmarshal(content, &w); err != nil {
		return Wallet{}, fmt.Errorf("wallet file %s: %w", path, err)
	}

	if w.PublicKey == "" || w.SecretKey == "" {
		return Wallet{}, fmt.Errorf("wallet file %s: missing key material", path)
	}

	return w, nil
}

// Save writes the wallet to disk readable only by the owner.
func (w Wallet) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadOrGenerate loads the wallet file, creating and saving a new one when
// the file does not exist yet.
func LoadOrGenerate(path string) (Wallet, error) {
	w, err := Load(path)
	switch {
	case err == nil:
		return w, nil

	case errors.Is(err, os.ErrNotExist):
		w, err := Generate()
		if err != nil {
			return Wallet{}, err
		}
		if err := w.Save(path); err != nil {
			return Wallet{}, err
		}
		return w, nil

	default:
		return Wallet{}, err
	}
}

// Address returns the account address for this wallet.
func (w Wallet) Address() string {
	return w.PublicKey
}
