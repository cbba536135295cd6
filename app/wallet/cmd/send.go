package cmd

import (
	"fmt"
	"log"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/wallet"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount float64
	fee    float64
	force  bool
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := wallet.Load(walletFile())
		if err != nil {
			log.Fatal(err)
		}

		// The node never checks funds on admission, so this is the one
		// place an overdraft can be caught.
		if !force {
			balance, err := queryBalance(w.Address())
			if err != nil {
				log.Fatal(err)
			}
			if amount+fee > balance {
				log.Fatalf("insufficient funds: balance %v, need %v (use --force to send anyway)", balance, amount+fee)
			}
		}

		tx := database.NewTx(w.Address(), to, amount, fee)
		if err := tx.Sign(w.SecretKey); err != nil {
			log.Fatal(err)
		}

		var resp struct {
			Status string `json:"status"`
			TxID   string `json:"txid"`
		}
		if err := postJSON("/v1/tx/submit", tx, &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Println("status:", resp.Status)
		fmt.Println("txid:", resp.TxID)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient account address.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Amount of coin to send.")
	sendCmd.MarkFlagRequired("amount")
	sendCmd.Flags().Float64VarP(&fee, "fee", "f", 0, "Fee offered to the miner.")
	sendCmd.Flags().BoolVar(&force, "force", false, "Skip the balance check before sending.")
}
