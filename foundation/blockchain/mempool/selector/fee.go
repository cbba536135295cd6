package selector

import (
	"sort"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
)

// feeSelect returns transactions ordered by fee descending so miners take
// the best paying work first. Equal fees fall back to admission order.
var feeSelect = func(items []Item, howMany int) []database.Tx {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Tx.Fee != items[j].Tx.Fee {
			return items[i].Tx.Fee > items[j].Tx.Fee
		}
		return items[i].Seq < items[j].Seq
	})

	if howMany == -1 || howMany > len(items) {
		howMany = len(items)
	}

	txs := make([]database.Tx, 0, howMany)
	for _, item := range items[:howMany] {
		txs = append(txs, item.Tx)
	}

	return txs
}
