// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/mempool"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// peersFile is the fixed name of the peer list inside the data directory.
const peersFile = "peers.json"

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and chain sync.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalStopMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the blockchain node.
type Config struct {
	BeneficiaryID  string
	Host           string
	Port           int
	DataDir        string
	SelectStrategy string
	Genesis        genesis.Genesis
	KnownPeers     *peer.PeerSet
	EvHandler      EventHandler
}

// State manages the blockchain database. The chain, the pending pool drain,
// and the difficulty are all guarded by the one mutex so a mining append and
// an inbound block append can never interleave.
type State struct {
	mu sync.Mutex

	beneficiaryID string
	host          string
	port          int
	dataDir       string
	evHandler     EventHandler

	genesis    genesis.Genesis
	chain      []database.Block
	difficulty int
	mempool    *mempool.Mempool
	storage    *database.Storage
	knownPeers *peer.PeerSet

	Worker Worker
}

// New constructs a new blockchain for data management. An existing snapshot
// on disk is reloaded, otherwise a fresh chain starts from the genesis block
// derived from the genesis file.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	strg, err := database.NewStorage(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	mpool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	s := State{
		beneficiaryID: cfg.BeneficiaryID,
		host:          cfg.Host,
		port:          cfg.Port,
		dataDir:       cfg.DataDir,
		evHandler:     ev,

		genesis:    cfg.Genesis,
		difficulty: cfg.Genesis.Difficulty,
		mempool:    mpool,
		storage:    strg,
		knownPeers: cfg.KnownPeers,
	}

	snapshot, err := strg.Load()
	switch {
	case errors.Is(err, database.ErrNoSnapshot):
		ev("state: New: creating new chain from genesis")
		s.chain = []database.Block{database.GenesisBlock(cfg.Genesis)}

	case err != nil:
		return nil, err

	default:
		ev("state: New: loaded chain from disk: height[%d]", len(snapshot.Chain)-1)
		s.chain = snapshot.Chain
		s.difficulty = snapshot.Difficulty
		for _, tx := range snapshot.PendingTransactions {
			s.mempool.Upsert(tx)
		}
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &s, nil
}

// Shutdown cleanly brings the node down, persisting the ledger snapshot and
// the peer list.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(); err != nil {
		return err
	}

	return s.knownPeers.Save(s.peersPath())
}

// SavePeers overwrites the peers file with the current known peer set.
func (s *State) SavePeers() error {
	return s.knownPeers.Save(s.peersPath())
}

// persistLocked overwrites the ledger snapshot on disk. The caller must hold
// the state mutex.
func (s *State) persistLocked() error {
	snapshot := database.Snapshot{
		Chain:               s.chain,
		PendingTransactions: s.mempool.Copy(),
		Difficulty:          s.difficulty,
	}

	return s.storage.Save(snapshot)
}

func (s *State) peersPath() string {
	return filepath.Join(s.dataDir, peersFile)
}
