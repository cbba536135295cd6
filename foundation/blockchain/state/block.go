package state

import (
	"errors"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
)

// ErrNotNextBlock is returned when a peer block does not extend the tip.
var ErrNotNextBlock = errors.New("block is not the next block in the chain")

// AcceptPeerBlock takes a block mined elsewhere, checks it extends the local
// tip, and appends it. Only the index and previous hash are checked here;
// full verification of hashes, proof of work, and signatures happens on
// demand through Validate. Any in flight local mining is cancelled since its
// snapshot of the tip is stale now.
func (s *State) AcceptPeerBlock(block database.Block) error {
	s.evHandler("state: AcceptPeerBlock: candidate block[%d] hash[%s]", block.Index, block.Hash)

	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.chain[len(s.chain)-1]

	if block.Index != uint64(len(s.chain)) || block.PrevHash != tip.Hash {
		return ErrNotNextBlock
	}

	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	s.appendBlockLocked(block)
	s.evHandler("state: AcceptPeerBlock: accepted block[%d] hash[%s]", block.Index, block.Hash)

	return nil
}

// appendBlockLocked extends the chain with the next block, drains its
// transactions from the pool, retargets the difficulty, and persists the
// snapshot. The caller must hold the state mutex.
func (s *State) appendBlockLocked(block database.Block) {
	s.chain = append(s.chain, block)

	for _, tx := range block.Transactions {
		s.mempool.Delete(tx.TxID)
	}

	s.retargetLocked(block)

	if err := s.persistLocked(); err != nil {
		s.evHandler("state: appendBlock: WARNING: persist snapshot: %s", err)
	}
}

// retargetLocked adjusts the difficulty once per adjustment interval based on
// how fast the last interval of blocks arrived compared to the target pace.
// The caller must hold the state mutex.
func (s *State) retargetLocked(block database.Block) {
	interval := s.genesis.AdjustmentInterval

	if interval == 0 || block.Index == 0 || block.Index%interval != 0 {
		return
	}
	if uint64(len(s.chain)) <= interval {
		return
	}

	first := s.chain[uint64(len(s.chain))-interval]
	elapsed := block.TimeStamp - first.TimeStamp
	expected := float64(interval) * s.genesis.TargetBlockTime

	switch {
	case elapsed < expected/2:
		s.difficulty++
		s.evHandler("state: retarget: interval ran fast: difficulty[%d]", s.difficulty)

	case elapsed > expected*2:
		if s.difficulty > 1 {
			s.difficulty--
		}
		s.evHandler("state: retarget: interval ran slow: difficulty[%d]", s.difficulty)
	}
}
