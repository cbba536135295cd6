package state

import (
	"context"
	"errors"
	"math"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
)

// ErrStaleTip is returned when the chain advanced while a block was being
// mined, making the mined block worthless.
var ErrStaleTip = errors.New("chain advanced during mining")

// MineNextBlock assembles a candidate block from the pool, performs the proof
// of work, and appends the block if the tip has not moved in the meantime.
// The lock is released while the hashing runs so inbound blocks and
// transactions are never starved.
func (s *State) MineNextBlock(ctx context.Context) (database.Block, error) {
	s.mu.Lock()
	tip := s.chain[len(s.chain)-1]
	difficulty := s.difficulty
	trans := append(
		[]database.Tx{database.NewCoinbaseTx(s.beneficiaryID, s.currentRewardLocked())},
		s.mempool.PickBest(s.genesis.TransPerBlock)...,
	)
	s.mu.Unlock()

	block := database.NewBlock(tip.Index+1, tip.Hash, database.Now(), trans)

	s.evHandler("state: MineNextBlock: MINING: block[%d] difficulty[%d] txs[%d]", block.Index, difficulty, len(trans))

	attempts, err := block.Mine(ctx, difficulty, s.genesis.PowParams)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: MineNextBlock: SOLVED: block[%d] nonce[%d] attempts[%d]", block.Index, block.Nonce, attempts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if block.Index != uint64(len(s.chain)) || block.PrevHash != s.chain[len(s.chain)-1].Hash {
		return database.Block{}, ErrStaleTip
	}

	s.appendBlockLocked(block)

	return block, nil
}

// currentRewardLocked returns the coinbase reward for the next block, halving
// every halving interval of blocks. The caller must hold the state mutex.
func (s *State) currentRewardLocked() float64 {
	if s.genesis.HalvingInterval == 0 {
		return s.genesis.BlockReward
	}

	halvings := uint64(len(s.chain)) / s.genesis.HalvingInterval

	return s.genesis.BlockReward / math.Pow(2, float64(halvings))
}
