package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoSnapshot is returned from Load when no snapshot exists on disk yet.
var ErrNoSnapshot = errors.New("no chain snapshot on disk")

// snapshotFile is the fixed name of the ledger snapshot inside the data
// directory. The format is shared with other implementations of this chain
// and must not change.
const snapshotFile = "blockchain.json"

// Snapshot is the persisted form of the ledger: the full block sequence,
// the pending pool, and the current difficulty.
type Snapshot struct {
	Chain               []Block `json:"chain"`
	PendingTransactions []Tx    `json:"pending_transactions"`
	Difficulty          int     `json:"difficulty"`
}

// Storage manages the ledger snapshot on disk. Every save is a whole file
// overwrite, written to a temp file first and renamed into place so a crash
// mid-write never leaves a torn snapshot.
type Storage struct {
	path string
}

// NewStorage constructs storage rooted at the data directory, creating the
// directory when needed.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &Storage{path: filepath.Join(dataDir, snapshotFile)}, nil
}

// Save overwrites the snapshot on disk.
func (s *Storage) Save(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

// Load reads the snapshot from disk. ErrNoSnapshot is returned when the
// node has never saved one.
func (s *Storage) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	return snapshot, nil
}
