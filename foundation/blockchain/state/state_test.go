package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/mempool/selector"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// testGenesis returns genesis settings with cheap hashing parameters so the
// proof of work completes quickly under test.
func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:               time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ChainName:          "test chain",
		GenesisRecipient:   "genesis",
		Difficulty:         1,
		BlockReward:        50,
		HalvingInterval:    210000,
		AdjustmentInterval: 2016,
		TargetBlockTime:    600,
		TransPerBlock:      999,
		MaxPeers:           8,
		PowParams:          signature.PowParams{Time: 1, MemoryKiB: 8, Threads: 1},
	}
}

func newTestState(t *testing.T, g genesis.Genesis) *state.State {
	t.Helper()

	s, err := state.New(state.Config{
		BeneficiaryID:  "miner",
		Host:           "127.0.0.1",
		Port:           9333,
		DataDir:        t.TempDir(),
		SelectStrategy: selector.StrategyFee,
		Genesis:        g,
		KnownPeers:     peer.NewPeerSet(g.MaxPeers),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return s
}

// signedTx builds a signed transaction whose sender is a real key pair, so
// signature validation passes on admission.
func signedTx(t *testing.T, recipient string, amount float64, fee float64) database.Tx {
	t.Helper()

	public, secret, err := signature.GenerateKeys()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate keys: %v", failed, err)
	}

	tx := database.NewTx(public, recipient, amount, fee)
	if err := tx.Sign(secret); err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	return tx
}

// Test_NewChain validates a fresh node starts from the genesis block.
func Test_NewChain(t *testing.T) {
	t.Log("Given the need to start a chain with no prior data on disk.")

	g := testGenesis()
	s := newTestState(t, g)

	if s.Height() != 0 {
		t.Fatalf("\t%s\tShould start at height 0, got %d.", failed, s.Height())
	}
	t.Logf("\t%s\tShould start at height 0.", success)

	tip := s.LatestBlock()
	if tip.Hash != database.GenesisBlock(g).Hash {
		t.Fatalf("\t%s\tShould start from the derived genesis block.", failed)
	}
	t.Logf("\t%s\tShould start from the derived genesis block.", success)

	if got := s.Balance(g.GenesisRecipient); got != g.BlockReward {
		t.Fatalf("\t%s\tShould credit the genesis recipient %v, got %v.", failed, g.BlockReward, got)
	}
	t.Logf("\t%s\tShould credit the genesis recipient.", success)
}

// Test_MempoolAdmission validates the admission rules: signatures are
// required, duplicates and coinbases are rejected, and an overdraft is NOT
// rejected since balances are never checked on admission.
func Test_MempoolAdmission(t *testing.T) {
	t.Log("Given the need to admit transactions into the pending pool.")

	s := newTestState(t, testGenesis())

	tx := signedTx(t, "bob", 10, 0.5)
	if err := s.UpsertMempool(tx); err != nil {
		t.Fatalf("\t%s\tShould admit a signed transaction: %v", failed, err)
	}
	t.Logf("\t%s\tShould admit a signed transaction.", success)

	if err := s.UpsertMempool(tx); !errors.Is(err, state.ErrDuplicateTx) {
		t.Fatalf("\t%s\tShould reject a duplicate txid, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject a duplicate txid.", success)

	unsigned := database.NewTx("sender", "bob", 10, 0.5)
	if err := s.UpsertMempool(unsigned); !errors.Is(err, state.ErrInvalidSignature) {
		t.Fatalf("\t%s\tShould reject an unsigned transaction, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject an unsigned transaction.", success)

	tampered := signedTx(t, "bob", 10, 0.5)
	tampered.Amount = 10000
	if err := s.UpsertMempool(tampered); !errors.Is(err, state.ErrInvalidSignature) {
		t.Fatalf("\t%s\tShould reject a tampered transaction, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject a tampered transaction.", success)

	coinbase := database.NewCoinbaseTx("bob", 50)
	if err := s.UpsertMempool(coinbase); err == nil {
		t.Fatalf("\t%s\tShould reject a coinbase from the wire.", failed)
	}
	t.Logf("\t%s\tShould reject a coinbase from the wire.", success)

	// The sender of tx holds no funds, yet admission succeeded above. That is
	// the documented behavior: funds are only checked at creation time.
	if s.MempoolCount() != 1 {
		t.Fatalf("\t%s\tShould hold exactly 1 pending transaction, got %d.", failed, s.MempoolCount())
	}
	t.Logf("\t%s\tShould hold exactly 1 pending transaction.", success)
}

// Test_Mining validates a mined block extends the chain, pays the reward,
// drains the pool, and survives a full chain validation.
func Test_Mining(t *testing.T) {
	t.Log("Given the need to mine pending transactions into a block.")

	s := newTestState(t, testGenesis())

	tx := signedTx(t, "bob", 10, 0.5)
	if err := s.UpsertMempool(tx); err != nil {
		t.Fatalf("\t%s\tShould admit a signed transaction: %v", failed, err)
	}

	block, err := s.MineNextBlock(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to mine a block.", success)

	if s.Height() != 1 || block.Index != 1 {
		t.Fatalf("\t%s\tShould be at height 1, got %d.", failed, s.Height())
	}
	t.Logf("\t%s\tShould be at height 1.", success)

	if !block.Transactions[0].IsCoinbase() || block.Transactions[0].Recipient != "miner" {
		t.Fatalf("\t%s\tShould place the miner's coinbase first.", failed)
	}
	t.Logf("\t%s\tShould place the miner's coinbase first.", success)

	if len(block.Transactions) != 2 || block.Transactions[1].TxID != tx.TxID {
		t.Fatalf("\t%s\tShould include the pending transaction.", failed)
	}
	t.Logf("\t%s\tShould include the pending transaction.", success)

	if s.MempoolCount() != 0 {
		t.Fatalf("\t%s\tShould drain the pool, %d left.", failed, s.MempoolCount())
	}
	t.Logf("\t%s\tShould drain the pool.", success)

	if got := s.Balance("miner"); got != 50 {
		t.Fatalf("\t%s\tShould pay the miner 50, got %v.", failed, got)
	}
	t.Logf("\t%s\tShould pay the miner 50.", success)

	if err := s.Validate(); err != nil {
		t.Fatalf("\t%s\tShould pass a full chain validation: %v", failed, err)
	}
	t.Logf("\t%s\tShould pass a full chain validation.", success)
}

// Test_AcceptPeerBlock validates the tip extension rules for inbound blocks.
func Test_AcceptPeerBlock(t *testing.T) {
	t.Log("Given the need to accept blocks mined by peers.")

	g := testGenesis()

	// Mine the next block on a second node sharing the same genesis.
	miner := newTestState(t, g)
	block, err := miner.MineNextBlock(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine on the peer: %v", failed, err)
	}

	s := newTestState(t, g)

	if err := s.AcceptPeerBlock(block); err != nil {
		t.Fatalf("\t%s\tShould accept the next block: %v", failed, err)
	}
	t.Logf("\t%s\tShould accept the next block.", success)

	if err := s.AcceptPeerBlock(block); !errors.Is(err, state.ErrNotNextBlock) {
		t.Fatalf("\t%s\tShould reject the same block twice, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject the same block twice.", success)

	stale := database.NewBlock(5, "bogus", database.Now(), []database.Tx{database.NewCoinbaseTx("x", 50)})
	if err := s.AcceptPeerBlock(stale); !errors.Is(err, state.ErrNotNextBlock) {
		t.Fatalf("\t%s\tShould reject a block that skips ahead, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject a block that skips ahead.", success)

	// Acceptance checks the index and previous hash only. A block whose nonce
	// does not satisfy the difficulty still extends the chain; the proof of
	// work is only re-checked by a full chain validation on demand.
	g8 := g
	g8.Difficulty = 8
	s8 := newTestState(t, g8)
	tip := s8.LatestBlock()
	noWork := database.NewBlock(1, tip.Hash, database.Now(), []database.Tx{database.NewCoinbaseTx("x", 50)})
	if err := s8.AcceptPeerBlock(noWork); err != nil {
		t.Fatalf("\t%s\tShould accept the next block without re-checking the work: %v", failed, err)
	}
	t.Logf("\t%s\tShould accept the next block without re-checking the work.", success)

	if s8.Height() != 1 {
		t.Fatalf("\t%s\tShould be at height 1 after the weak acceptance, got %d.", failed, s8.Height())
	}
	t.Logf("\t%s\tShould be at height 1 after the weak acceptance.", success)
}

// Test_MinedBlocksCross validates a transaction mined on one node cannot be
// readmitted after the block carrying it arrives.
func Test_MinedBlocksCross(t *testing.T) {
	t.Log("Given the need to discard transactions already recorded in a block.")

	g := testGenesis()
	miner := newTestState(t, g)

	tx := signedTx(t, "bob", 10, 0.5)
	if err := miner.UpsertMempool(tx); err != nil {
		t.Fatalf("\t%s\tShould admit on the mining node: %v", failed, err)
	}
	block, err := miner.MineNextBlock(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
	}

	s := newTestState(t, g)
	if err := s.UpsertMempool(tx); err != nil {
		t.Fatalf("\t%s\tShould admit on the receiving node: %v", failed, err)
	}
	if err := s.AcceptPeerBlock(block); err != nil {
		t.Fatalf("\t%s\tShould accept the block: %v", failed, err)
	}

	if s.MempoolCount() != 0 {
		t.Fatalf("\t%s\tShould drop the mined transaction from the pool.", failed)
	}
	t.Logf("\t%s\tShould drop the mined transaction from the pool.", success)

	if err := s.UpsertMempool(tx); !errors.Is(err, state.ErrDuplicateTx) {
		t.Fatalf("\t%s\tShould reject a txid already in the chain, got %v.", failed, err)
	}
	t.Logf("\t%s\tShould reject a txid already in the chain.", success)
}

// Test_Persistence validates a restart resumes from the saved snapshot.
func Test_Persistence(t *testing.T) {
	t.Log("Given the need to resume a chain from disk after a restart.")

	g := testGenesis()
	dataDir := t.TempDir()

	cfg := state.Config{
		BeneficiaryID:  "miner",
		Host:           "127.0.0.1",
		Port:           9333,
		DataDir:        dataDir,
		SelectStrategy: selector.StrategyFee,
		Genesis:        g,
		KnownPeers:     peer.NewPeerSet(g.MaxPeers),
	}

	s1, err := state.New(cfg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	pending := signedTx(t, "carol", 3, 0.1)

	if _, err := s1.MineNextBlock(context.Background()); err != nil {
		t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
	}
	if err := s1.UpsertMempool(pending); err != nil {
		t.Fatalf("\t%s\tShould admit a pending transaction: %v", failed, err)
	}
	if err := s1.Shutdown(); err != nil {
		t.Fatalf("\t%s\tShould shut down cleanly: %v", failed, err)
	}
	t.Logf("\t%s\tShould shut down cleanly.", success)

	s2, err := state.New(cfg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to restart from disk: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to restart from disk.", success)

	if s2.Height() != 1 {
		t.Fatalf("\t%s\tShould resume at height 1, got %d.", failed, s2.Height())
	}
	t.Logf("\t%s\tShould resume at height 1.", success)

	if s2.MempoolCount() != 1 {
		t.Fatalf("\t%s\tShould resume with 1 pending transaction, got %d.", failed, s2.MempoolCount())
	}
	if s2.Mempool()[0].TxID != pending.TxID {
		t.Fatalf("\t%s\tShould resume with the pending transaction intact.", failed)
	}
	t.Logf("\t%s\tShould resume with the pending transaction intact.", success)

	if err := s2.Validate(); err != nil {
		t.Fatalf("\t%s\tShould pass validation after the restart: %v", failed, err)
	}
	t.Logf("\t%s\tShould pass validation after the restart.", success)
}

// Test_RetrieveBlocks validates segment retrieval with negative indexes.
func Test_RetrieveBlocks(t *testing.T) {
	t.Log("Given the need to serve chain segments to peers.")

	s := newTestState(t, testGenesis())

	for i := 0; i < 3; i++ {
		if _, err := s.MineNextBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, i+1, err)
		}
	}

	blocks := s.RetrieveBlocks(0, -1)
	if len(blocks) != 4 {
		t.Fatalf("\t%s\tShould retrieve the whole chain of 4, got %d.", failed, len(blocks))
	}
	t.Logf("\t%s\tShould retrieve the whole chain.", success)

	blocks = s.RetrieveBlocks(-1, -1)
	if len(blocks) != 1 || blocks[0].Index != 3 {
		t.Fatalf("\t%s\tShould retrieve just the tip with -1/-1.", failed)
	}
	t.Logf("\t%s\tShould retrieve just the tip with -1/-1.", success)

	blocks = s.RetrieveBlocks(1, 2)
	if len(blocks) != 2 || blocks[0].Index != 1 || blocks[1].Index != 2 {
		t.Fatalf("\t%s\tShould retrieve the middle segment.", failed)
	}
	t.Logf("\t%s\tShould retrieve the middle segment.", success)

	blocks = s.RetrieveBlocks(2, 100)
	if len(blocks) != 2 || blocks[1].Index != 3 {
		t.Fatalf("\t%s\tShould clamp the end to the tip.", failed)
	}
	t.Logf("\t%s\tShould clamp the end to the tip.", success)

	// Negative indexes further back than the chain is long arrive off the
	// wire and must resolve to an empty segment, never a panic.
	if blocks := s.RetrieveBlocks(0, -100); len(blocks) != 0 {
		t.Fatalf("\t%s\tShould return an empty segment for a negative end past genesis, got %d.", failed, len(blocks))
	}
	t.Logf("\t%s\tShould return an empty segment for a negative end past genesis.", success)

	if blocks := s.RetrieveBlocks(-100, 0); len(blocks) != 1 || blocks[0].Index != 0 {
		t.Fatalf("\t%s\tShould clamp a deep negative start to genesis.", failed)
	}
	t.Logf("\t%s\tShould clamp a deep negative start to genesis.", success)

	if blocks := s.RetrieveBlocks(3, 1); len(blocks) != 0 {
		t.Fatalf("\t%s\tShould return an empty segment for an inverted range, got %d.", failed, len(blocks))
	}
	t.Logf("\t%s\tShould return an empty segment for an inverted range.", success)
}

// Test_Retarget validates the difficulty moves with the pace of the chain.
func Test_Retarget(t *testing.T) {
	t.Log("Given the need to retarget the difficulty from block timestamps.")

	g := testGenesis()
	g.AdjustmentInterval = 2
	g.TargetBlockTime = 600

	// Fast blocks: each adjustment window completes in far under half the
	// expected time, so the difficulty must rise.
	s := newTestState(t, g)

	for i := 0; i < 4; i++ {
		if _, err := s.MineNextBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, i+1, err)
		}
	}

	// Adjustment windows close at heights 2 and 4, each well under half the
	// expected pace.
	if got := s.Difficulty(); got != g.Difficulty+2 {
		t.Fatalf("\t%s\tShould raise the difficulty twice over 4 fast blocks, got %d.", failed, got)
	}
	t.Logf("\t%s\tShould raise the difficulty twice over 4 fast blocks.", success)
}

// Test_RetargetSlow validates the difficulty drops when blocks arrive slowly
// and never falls below 1.
func Test_RetargetSlow(t *testing.T) {
	t.Log("Given the need to lower the difficulty when the chain runs slow.")

	g := testGenesis()
	g.Difficulty = 2
	g.AdjustmentInterval = 2
	g.TargetBlockTime = 600

	s := newTestState(t, g)

	// Feed blocks spaced far beyond double the expected window pace.
	at := float64(g.Date.Unix())
	for i := 1; i <= 4; i++ {
		at += 10000

		tip := s.LatestBlock()
		block := database.NewBlock(uint64(i), tip.Hash, at, []database.Tx{database.NewCoinbaseTx("x", 50)})
		if err := s.AcceptPeerBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept slow block %d: %v", failed, i, err)
		}
	}

	// The window at height 2 decrements 2 to 1; the window at height 4 is
	// just as slow but the difficulty floors at 1.
	if got := s.Difficulty(); got != 1 {
		t.Fatalf("\t%s\tShould lower the difficulty to the floor of 1, got %d.", failed, got)
	}
	t.Logf("\t%s\tShould lower the difficulty to the floor of 1.", success)
}

// Test_RewardHalving validates the coinbase amount follows the halving
// schedule.
func Test_RewardHalving(t *testing.T) {
	t.Log("Given the need to halve the block reward on schedule.")

	g := testGenesis()
	g.HalvingInterval = 2

	s := newTestState(t, g)

	rewards := make([]float64, 0, 4)
	for i := 0; i < 4; i++ {
		block, err := s.MineNextBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, i+1, err)
		}
		rewards = append(rewards, block.Transactions[0].Amount)
	}

	// Heights when mining: chain lengths 1,2,3,4 -> halvings 0,1,1,2.
	want := []float64{50, 25, 25, 12.5}
	for i := range want {
		if rewards[i] != want[i] {
			t.Fatalf("\t%s\tShould pay reward %v for block %d, got %v.", failed, want[i], i+1, rewards[i])
		}
	}
	t.Logf("\t%s\tShould follow the halving schedule %v.", success, want)
}

// Test_ValidateDetectsTampering validates the rescan catches a rewritten
// chain.
func Test_ValidateDetectsTampering(t *testing.T) {
	t.Log("Given the need to detect tampering with recorded blocks.")

	s := newTestState(t, testGenesis())

	tx := signedTx(t, "bob", 10, 0.5)
	if err := s.UpsertMempool(tx); err != nil {
		t.Fatalf("\t%s\tShould admit a signed transaction: %v", failed, err)
	}
	if _, err := s.MineNextBlock(context.Background()); err != nil {
		t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
	}

	blocks := s.RetrieveBlocks(0, -1)
	blocks[1].Transactions[1].Amount = 10000

	if blocks[1].ComputeHash() == blocks[1].Hash {
		t.Fatalf("\t%s\tShould change the content hash when a transaction changes.", failed)
	}
	t.Logf("\t%s\tShould change the content hash when a transaction changes.", success)
}
