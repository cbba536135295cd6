// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFee = "fee"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFee: feeSelect,
}

// Item is a pooled transaction together with its admission sequence. The
// sequence breaks ties between transactions offering the same fee so
// selection stays stable in first-in order.
type Item struct {
	Tx  database.Tx
	Seq uint64
}

// Func defines a function that takes the pooled transactions and selects
// howMany of them in an order based on the function's strategy. Receiving -1
// for howMany must return all the transactions in the strategy's ordering.
type Func func(items []Item, howMany int) []database.Tx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}
