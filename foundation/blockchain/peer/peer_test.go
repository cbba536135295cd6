package peer_test

import (
	"path/filepath"
	"testing"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_BoundedSet(t *testing.T) {
	t.Log("Given the need to maintain a bounded peer set.")
	{
		ps := peer.NewPeerSet(2)

		if !ps.Add(peer.New("127.0.0.1", 9333)) {
			t.Fatalf("\t%s\tShould add a first peer.", failed)
		}
		if ps.Add(peer.New("127.0.0.1", 9333)) {
			t.Fatalf("\t%s\tShould refuse a duplicate peer.", failed)
		}
		t.Logf("\t%s\tShould refuse a duplicate peer.", success)

		if !ps.Add(peer.New("127.0.0.1", 9334)) {
			t.Fatalf("\t%s\tShould add a second peer.", failed)
		}
		if ps.Add(peer.New("127.0.0.1", 9335)) {
			t.Fatalf("\t%s\tShould refuse a peer past capacity.", failed)
		}
		t.Logf("\t%s\tShould refuse a peer past capacity.", success)

		ps.Remove(peer.New("127.0.0.1", 9334))
		if !ps.Add(peer.New("127.0.0.1", 9335)) {
			t.Fatalf("\t%s\tShould accept a new peer once room frees up.", failed)
		}
		t.Logf("\t%s\tShould accept a new peer once room frees up.", success)

		if ps.Count() != 2 {
			t.Fatalf("\t%s\tShould hold 2 peers, got %d.", failed, ps.Count())
		}
		t.Logf("\t%s\tShould hold 2 peers.", success)

		if _, ok := ps.Random(); !ok {
			t.Fatalf("\t%s\tShould return a random peer from a non-empty set.", failed)
		}
		t.Logf("\t%s\tShould return a random peer from a non-empty set.", success)
	}
}

func Test_LastSeen(t *testing.T) {
	ps := peer.NewPeerSet(4)
	p := peer.New("10.0.0.1", 9333)

	ps.Touch(p, 100)
	if ps.LastSeen(p) != 0 {
		t.Fatal("Should not track liveness for an unknown peer.")
	}

	ps.Add(p)
	ps.Touch(p, 100)
	if ps.LastSeen(p) != 100 {
		t.Fatal("Should track the last successful contact.")
	}
}

func Test_SaveLoadRoundTrip(t *testing.T) {
	t.Log("Given the need to persist peers across restarts.")
	{
		path := filepath.Join(t.TempDir(), "peers.json")

		ps := peer.NewPeerSet(4)
		ps.Add(peer.New("10.0.0.1", 9333))
		ps.Add(peer.New("10.0.0.2", 9333))

		if err := ps.Save(path); err != nil {
			t.Fatalf("\t%s\tShould be able to save the peers file: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to save the peers file.", success)

		reloaded := peer.NewPeerSet(4)
		if err := reloaded.Load(path); err != nil {
			t.Fatalf("\t%s\tShould be able to load the peers file: %s", failed, err)
		}
		if reloaded.Count() != 2 {
			t.Fatalf("\t%s\tShould reload both peers, got %d.", failed, reloaded.Count())
		}
		t.Logf("\t%s\tShould reload both peers.", success)

		capped := peer.NewPeerSet(1)
		if err := capped.Load(path); err != nil {
			t.Fatalf("\t%s\tShould be able to load into a smaller set: %s", failed, err)
		}
		if capped.Count() != 1 {
			t.Fatalf("\t%s\tShould respect capacity while loading, got %d.", failed, capped.Count())
		}
		t.Logf("\t%s\tShould respect capacity while loading.", success)
	}
}

func Test_LoadMissingFile(t *testing.T) {
	ps := peer.NewPeerSet(4)
	if err := ps.Load(filepath.Join(t.TempDir(), "peers.json")); err != nil {
		t.Fatalf("Should treat a missing peers file as an empty set: %s", err)
	}
}
