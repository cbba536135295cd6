package cmd

import (
	"fmt"
	"log"

	"github.com/qbitcoin/qbitcoin/app/services/node/handlers/v1/public"
	"github.com/qbitcoin/qbitcoin/foundation/wallet"
	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the spendable balance for the wallet",
	Run: func(cmd *cobra.Command, args []string) {
		w, err := wallet.Load(walletFile())
		if err != nil {
			log.Fatal(err)
		}

		balance, err := queryBalance(w.Address())
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("account:", w.Address())
		fmt.Println("balance:", balance)
	},
}

func queryBalance(account string) (float64, error) {
	var balances public.Balances
	if err := getJSON(fmt.Sprintf("/v1/balances/list/%s", account), &balances); err != nil {
		return 0, err
	}

	if len(balances.Balances) == 0 {
		return 0, nil
	}
	return balances.Balances[0].Balance, nil
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
