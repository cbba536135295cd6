package network_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/network"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

// testGenesis returns genesis settings with cheap hashing parameters.
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
		PowParams:          signature.PowParams{Time: 1, MemoryKiB: 8, Threads: 1},
	}
}

// waitFor polls the condition until it holds or the test deadline of two
// seconds is spent. Floods are applied by the server after the sender has
// already hung up.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("\t%s\tShould observe the delivery before the deadline.", failed)
}

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// stubLedger records what the server asked of it.
type stubLedger struct {
	mu     sync.Mutex
	blocks []database.Block
	txs    []database.Tx
	peers  []peer.Peer
}

func (l *stubLedger) AcceptPeerBlock(block database.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = append(l.blocks, block)
	return nil
}

func (l *stubLedger) UpsertMempool(tx database.Tx) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append(l.txs, tx)
	return nil
}

func (l *stubLedger) RetrieveBlocks(start int64, end int64) []database.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	blocks := make([]database.Block, len(l.blocks))
	copy(blocks, l.blocks)
	return blocks
}

func (l *stubLedger) AddKnownPeer(p peer.Peer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.peers = append(l.peers, p)
	return true
}

func (l *stubLedger) KnownPeers() []peer.Peer {
	l.mu.Lock()
	defer l.mu.Unlock()
	peers := make([]peer.Peer, len(l.peers))
	copy(peers, l.peers)
	return peers
}

func (l *stubLedger) acceptedBlocks() []database.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]database.Block(nil), l.blocks...)
}

func (l *stubLedger) acceptedTxs() []database.Tx {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]database.Tx(nil), l.txs...)
}

// startServer runs a gossip server on a free local port and returns the peer
// address a client can dial.
func startServer(t *testing.T, ledger *stubLedger) peer.Peer {
	t.Helper()

	srv := network.NewServer(network.ServerConfig{
		Host:   "127.0.0.1",
		Port:   0,
		Ledger: ledger,
	})
	if err := srv.Start(); err != nil {
		t.Fatalf("\t%s\tShould be able to start the server: %v", failed, err)
	}
	t.Cleanup(srv.Stop)

	addr := srv.Addr().(*net.TCPAddr)

	return peer.New("127.0.0.1", addr.Port)
}

// Test_PingPong validates a ping is answered and the caller's address lands
// in the peer registry.
func Test_PingPong(t *testing.T) {
	t.Log("Given the need to exchange ping and pong between nodes.")

	ledger := &stubLedger{}
	target := startServer(t, ledger)
	self := peer.New("127.0.0.1", 9999)

	at, err := network.Ping(target, self)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to ping the server: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to ping the server.", success)

	if at <= 0 {
		t.Errorf("\t%s\tShould receive a pong timestamp, got %v.", failed, at)
	} else {
		t.Logf("\t%s\tShould receive a pong timestamp.", success)
	}

	peers := ledger.KnownPeers()
	if len(peers) != 1 || !peers[0].Match(self.Host, self.Port) {
		t.Fatalf("\t%s\tShould record the caller as a known peer, got %v.", failed, peers)
	}
	t.Logf("\t%s\tShould record the caller as a known peer.", success)
}

// Test_GetPeers validates peer discovery returns the server's registry.
func Test_GetPeers(t *testing.T) {
	t.Log("Given the need to discover peers from another node.")

	ledger := &stubLedger{peers: []peer.Peer{peer.New("10.0.0.1", 9333), peer.New("10.0.0.2", 9333)}}
	target := startServer(t, ledger)

	peers, err := network.GetPeers(target)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to request peers: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to request peers.", success)

	if len(peers) != 2 {
		t.Fatalf("\t%s\tShould receive 2 peers, got %d.", failed, len(peers))
	}
	t.Logf("\t%s\tShould receive 2 peers.", success)
}

// Test_GetBlocks validates a chain segment download and the height probe.
func Test_GetBlocks(t *testing.T) {
	t.Log("Given the need to download blocks from another node.")

	g := testGenesis()
	gen := database.GenesisBlock(g)
	next := database.NewBlock(1, gen.Hash, database.Now(), []database.Tx{database.NewCoinbaseTx("miner", 50)})

	ledger := &stubLedger{blocks: []database.Block{gen, next}}
	target := startServer(t, ledger)

	blocks, err := network.GetBlocks(target, 0, -1)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to download blocks: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to download blocks.", success)

	if len(blocks) != 2 || blocks[1].Hash != next.Hash {
		t.Fatalf("\t%s\tShould receive the chain intact, got %d blocks.", failed, len(blocks))
	}
	t.Logf("\t%s\tShould receive the chain intact.", success)

	height, err := network.ProbeHeight(target)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to probe the height: %v", failed, err)
	}
	if height != 1 {
		t.Fatalf("\t%s\tShould probe height 1, got %d.", failed, height)
	}
	t.Logf("\t%s\tShould probe height 1.", success)
}

// Test_FloodTransaction validates an inbound transaction reaches the ledger.
func Test_FloodTransaction(t *testing.T) {
	t.Log("Given the need to receive a flooded transaction.")

	_, secret, err := signature.GenerateKeys()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate keys: %v", failed, err)
	}

	tx := database.NewTx("alice", "bob", 10, 0.5)
	if err := tx.Sign(secret); err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	ledger := &stubLedger{}
	target := startServer(t, ledger)

	if err := network.SendTx(target, tx); err != nil {
		t.Fatalf("\t%s\tShould be able to send the transaction: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to send the transaction.", success)

	waitFor(t, func() bool { return len(ledger.acceptedTxs()) == 1 })

	if got := ledger.acceptedTxs(); got[0].TxID != tx.TxID {
		t.Fatalf("\t%s\tShould deliver the transaction to the ledger.", failed)
	}
	t.Logf("\t%s\tShould deliver the transaction to the ledger.", success)
}

// Test_FloodBlock validates an inbound block reaches the ledger.
func Test_FloodBlock(t *testing.T) {
	t.Log("Given the need to receive a flooded block.")

	g := testGenesis()
	gen := database.GenesisBlock(g)
	next := database.NewBlock(1, gen.Hash, database.Now(), []database.Tx{database.NewCoinbaseTx("miner", 50)})

	ledger := &stubLedger{}
	target := startServer(t, ledger)

	if err := network.SendBlock(target, next); err != nil {
		t.Fatalf("\t%s\tShould be able to send the block: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to send the block.", success)

	waitFor(t, func() bool { return len(ledger.acceptedBlocks()) == 1 })

	if got := ledger.acceptedBlocks(); got[0].Hash != next.Hash {
		t.Fatalf("\t%s\tShould deliver the block to the ledger.", failed)
	}
	t.Logf("\t%s\tShould deliver the block to the ledger.", success)
}

// Test_DecodeUnknown validates an unknown message type is an error.
func Test_DecodeUnknown(t *testing.T) {
	t.Log("Given the need to reject unknown wire messages.")

	if _, err := network.DecodeMessage([]byte(`{"type":"reorg"}`)); err == nil {
		t.Fatalf("\t%s\tShould reject an unknown message type.", failed)
	}
	t.Logf("\t%s\tShould reject an unknown message type.", success)

	if _, err := network.DecodeMessage([]byte(`not json`)); err == nil {
		t.Fatalf("\t%s\tShould reject a malformed document.", failed)
	}
	t.Logf("\t%s\tShould reject a malformed document.", success)
}

// Test_DecodeGetBlocksDefaults validates a get_blocks that omits its range
// fields asks for the whole chain, matching nodes that send bare requests.
func Test_DecodeGetBlocksDefaults(t *testing.T) {
	t.Log("Given the need to decode a get_blocks without an explicit range.")

	msg, err := network.DecodeMessage([]byte(`{"type":"get_blocks"}`))
	if err != nil {
		t.Fatalf("\t%s\tShould decode a bare get_blocks: %v", failed, err)
	}
	gb, ok := msg.(*network.GetBlocksMsg)
	if !ok {
		t.Fatalf("\t%s\tShould decode to a get_blocks message, got %T.", failed, msg)
	}
	if gb.StartIndex != 0 || gb.EndIndex != -1 {
		t.Fatalf("\t%s\tShould default the range to 0..-1, got %d..%d.", failed, gb.StartIndex, gb.EndIndex)
	}
	t.Logf("\t%s\tShould default the range to 0..-1.", success)

	msg, err = network.DecodeMessage([]byte(`{"type":"get_blocks","start_index":2,"end_index":5}`))
	if err != nil {
		t.Fatalf("\t%s\tShould decode an explicit range: %v", failed, err)
	}
	gb = msg.(*network.GetBlocksMsg)
	if gb.StartIndex != 2 || gb.EndIndex != 5 {
		t.Fatalf("\t%s\tShould honor an explicit range, got %d..%d.", failed, gb.StartIndex, gb.EndIndex)
	}
	t.Logf("\t%s\tShould honor an explicit range.", success)
}
