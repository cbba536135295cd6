package state

import (
	"errors"
	"fmt"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
)

// Set of errors returned from mempool admission.
var (
	ErrInvalidSignature = errors.New("transaction signature is invalid")
	ErrDuplicateTx      = errors.New("transaction already known")
)

// UpsertMempool validates a transaction and adds it to the pending pool.
// Coinbase transactions can only be created by mining, never submitted, and
// a txid already present in the chain or the pool is rejected. No balance
// check happens here; funds are only checked when a wallet builds the
// transaction, so an overdraft can sit in the pool and simply drive a
// balance negative once mined.
func (s *State) UpsertMempool(tx database.Tx) error {
	if tx.IsCoinbase() {
		return fmt.Errorf("coinbase transactions cannot be submitted: %s", tx.TxID)
	}

	if !tx.Verify() {
		return ErrInvalidSignature
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.txKnownLocked(tx.TxID) {
		return ErrDuplicateTx
	}

	count := s.mempool.Upsert(tx)
	s.evHandler("state: UpsertMempool: tx[%s] pool[%d]", tx.TxID, count)

	return nil
}

// SubmitTransaction admits a transaction into the pool and, on success,
// broadcasts it to all known peers.
func (s *State) SubmitTransaction(tx database.Tx) error {
	if err := s.UpsertMempool(tx); err != nil {
		return err
	}

	s.NetSendTxToPeers(tx)

	return nil
}

// txKnownLocked reports whether a txid is already in the pool or recorded in
// any mined block. The caller must hold the state mutex.
func (s *State) txKnownLocked(txID string) bool {
	if s.mempool.Exists(txID) {
		return true
	}

	for _, block := range s.chain {
		for _, tx := range block.Transactions {
			if tx.TxID == txID {
				return true
			}
		}
	}

	return false
}
