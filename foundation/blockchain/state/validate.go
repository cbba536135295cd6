package state

import (
	"fmt"
)

// Validate rescans the whole chain: every block's stored hash must match its
// contents, every block must link to its predecessor, and every transaction
// except the coinbase must carry a valid signature.
func (s *State) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 1; i < len(s.chain); i++ {
		block := s.chain[i]
		prev := s.chain[i-1]

		if block.Hash != block.ComputeHash() {
			return fmt.Errorf("block %d: stored hash does not match contents", block.Index)
		}

		if block.PrevHash != prev.Hash {
			return fmt.Errorf("block %d: broken link to block %d", block.Index, prev.Index)
		}

		for j, tx := range block.Transactions {
			if j == 0 && tx.IsCoinbase() {
				continue
			}
			if !tx.Verify() {
				return fmt.Errorf("block %d: transaction %s: invalid signature", block.Index, tx.TxID)
			}
		}
	}

	return nil
}
