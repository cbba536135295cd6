package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Ask the node to rescan and validate its chain",
	Run: func(cmd *cobra.Command, args []string) {
		var resp struct {
			Valid  bool   `json:"valid"`
			Height uint64 `json:"height"`
			Error  string `json:"error"`
		}
		if err := getJSON("/v1/chain/validate", &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Println("height:", resp.Height)
		fmt.Println("valid:", resp.Valid)
		if resp.Error != "" {
			fmt.Println("error:", resp.Error)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
