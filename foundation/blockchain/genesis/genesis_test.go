package genesis_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

func Test_LoadSaveRoundTrip(t *testing.T) {
	g := genesis.Genesis{
		Date:               time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainName:          "QBitcoin Test",
		GenesisRecipient:   "QBitcoin Genesis Address",
		Difficulty:         3,
		BlockReward:        50,
		HalvingInterval:    210000,
		MaxSupply:          21000000,
		AdjustmentInterval: 2016,
		TargetBlockTime:    600,
		TransPerBlock:      999,
		MaxPeers:           8,
		PingInterval:       30,
		SyncInterval:       60,
		PowParams:          signature.PowParams{Time: 2, MemoryKiB: 102400, Threads: 8},
	}

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := g.Save(path); err != nil {
		t.Fatalf("Should be able to save the genesis file: %s", err)
	}

	got, err := genesis.Load(path)
	if err != nil {
		t.Fatalf("Should be able to load the genesis file: %s", err)
	}

	if got != g {
		t.Logf("got: %+v", got)
		t.Logf("exp: %+v", g)
		t.Fatal("Should get back the same genesis values.")
	}
}

func Test_LoadMissingFile(t *testing.T) {
	if _, err := genesis.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Should return an error for a missing genesis file.")
	}
}
