package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/qbitcoin/qbitcoin/foundation/wallet"
	"github.com/spf13/cobra"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	Run: func(cmd *cobra.Command, args []string) {
		path := walletFile()

		if _, err := os.Stat(path); err == nil {
			log.Fatalf("wallet file %s already exists", path)
		}

		w, err := wallet.Generate()
		if err != nil {
			log.Fatal(err)
		}
		if err := w.Save(path); err != nil {
			log.Fatal(err)
		}

		fmt.Println("wallet:", path)
		fmt.Println("address:", w.Address())
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
