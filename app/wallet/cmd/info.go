package cmd

import (
	"fmt"
	"log"

	"github.com/qbitcoin/qbitcoin/app/services/node/handlers/v1/public"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the status of the node",
	Run: func(cmd *cobra.Command, args []string) {
		var status public.Status
		if err := getJSON("/v1/status", &status); err != nil {
			log.Fatal(err)
		}

		fmt.Println("chain:", status.ChainName)
		fmt.Println("height:", status.Height)
		fmt.Println("latest hash:", status.LatestHash)
		fmt.Println("difficulty:", status.Difficulty)
		fmt.Println("mempool:", status.MempoolCount)
		fmt.Println("peers:", status.KnownPeers)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
