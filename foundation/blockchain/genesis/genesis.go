// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

// Genesis represents the genesis file with the consensus tunables every
// node on the chain must agree on.
type Genesis struct {
	Date               time.Time           `json:"date"`
	ChainName          string              `json:"chain_name"`          // A human readable name for this running chain.
	GenesisRecipient   string              `json:"genesis_recipient"`   // Account credited by the genesis coinbase.
	Difficulty         int                 `json:"difficulty"`          // Initial number of leading zero hex characters a solved digest needs.
	BlockReward        float64             `json:"block_reward"`        // Reward for mining a block, halved on a fixed schedule.
	HalvingInterval    uint64              `json:"halving_interval"`    // Number of blocks between reward halvings.
	MaxSupply          float64             `json:"max_supply"`          // Informational cap on supply. Not enforced by minting or validation.
	AdjustmentInterval uint64              `json:"adjustment_interval"` // Blocks between difficulty adjustments.
	TargetBlockTime    float64             `json:"target_block_time"`   // Target seconds between blocks.
	TransPerBlock      int                 `json:"trans_per_block"`     // The maximum number of pending transactions mined into a block.
	MaxPeers           int                 `json:"max_peers"`           // Cap on the known peer set.
	PingInterval       float64             `json:"ping_interval"`       // Seconds between peer liveness probes.
	SyncInterval       float64             `json:"sync_interval"`       // Seconds between chain sync passes.
	PowParams          signature.PowParams `json:"argon2"`              // Argon2id tuning for the proof of work.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Save writes the genesis file to disk. This exists to stand up chains
// with custom tunables inside tests.
func (g Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
