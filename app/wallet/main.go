package main

import "github.com/qbitcoin/qbitcoin/app/wallet/cmd"

func main() {
	cmd.Execute()
}
