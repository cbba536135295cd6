// Package mempool maintains the pool of admitted, not yet mined
// transactions.
package mempool

import (
	"sync"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/mempool/selector"
)

// Mempool represents a cache of transactions keyed by transaction id. Keying
// by id makes redundant delivery from flooding peers idempotent: the same
// transaction lands on the same key and keeps its original admission order.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]selector.Item
	seq      uint64
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFee)
}

// NewWithStrategy constructs a new mempool with the specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]selector.Item),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the mempool and returns the new pool size.
// A transaction already in the pool keeps its original admission sequence.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if item, exists := mp.pool[tx.TxID]; exists {
		item.Tx = tx
		mp.pool[tx.TxID] = item
		return len(mp.pool)
	}

	mp.seq++
	mp.pool[tx.TxID] = selector.Item{Tx: tx, Seq: mp.seq}

	return len(mp.pool)
}

// Exists reports whether a transaction with the id is in the pool.
func (mp *Mempool) Exists(txID string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[txID]
	return exists
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(txID string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, txID)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]selector.Item)
}

// PickBest uses the configured sort strategy to return the next set of
// transactions for the next block. Pass -1 for all of them.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	items := make([]selector.Item, 0, len(mp.pool))
	for _, item := range mp.pool {
		items = append(items, item)
	}
	mp.mu.RUnlock()

	return mp.selectFn(items, howMany)
}

// Copy returns every pooled transaction in selection order for snapshots
// and API listings.
func (mp *Mempool) Copy() []database.Tx {
	return mp.PickBest(-1)
}
