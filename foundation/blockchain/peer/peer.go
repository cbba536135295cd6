// Package peer maintains the bounded set of known remote nodes and their
// liveness information.
package peer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
)

// Peer represents information about a node in the network. Identity is
// (host, port); there is no cryptographic peer identity.
type Peer struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// New constructs a new peer value.
func New(host string, port int) Peer {
	return Peer{
		Host: host,
		Port: port,
	}
}

// String implements the fmt.Stringer interface.
func (p Peer) String() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Match validates if the specified host and port match this peer.
func (p Peer) Match(host string, port int) bool {
	return p.Host == host && p.Port == port
}

// =============================================================================

// PeerSet represents the data representation to maintain a bounded set of
// known peers. Once the set is at capacity, Add refuses new peers.
type PeerSet struct {
	mu       sync.RWMutex
	cap      int
	set      map[Peer]struct{}
	lastSeen map[Peer]float64
}

// NewPeerSet constructs a set to manage node peer information capped at
// maxPeers entries.
func NewPeerSet(maxPeers int) *PeerSet {
	return &PeerSet{
		cap:      maxPeers,
		set:      make(map[Peer]struct{}),
		lastSeen: make(map[Peer]float64),
	}
}

// Add adds a new peer to the set. It reports false when the peer is already
// known or the set is at capacity.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; exists {
		return false
	}
	if len(ps.set) >= ps.cap {
		return false
	}

	ps.set[peer] = struct{}{}
	return true
}

// Remove removes a peer from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
	delete(ps.lastSeen, peer)
}

// Touch records a successful contact with the peer.
func (ps *PeerSet) Touch(peer Peer, at float64) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; exists {
		ps.lastSeen[peer] = at
	}
}

// LastSeen returns the time of the last successful contact with the peer.
func (ps *PeerSet) LastSeen(peer Peer) float64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return ps.lastSeen[peer]
}

// Count returns the number of known peers.
func (ps *PeerSet) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers. There is no ordering guarantee.
func (ps *PeerSet) Copy() []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for peer := range ps.set {
		peers = append(peers, peer)
	}

	return peers
}

// Random returns one known peer chosen at random. It reports false when the
// set is empty.
func (ps *PeerSet) Random() (Peer, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if len(ps.set) == 0 {
		return Peer{}, false
	}

	n := rand.Intn(len(ps.set))
	for peer := range ps.set {
		if n == 0 {
			return peer, true
		}
		n--
	}

	return Peer{}, false
}

// =============================================================================

// Save overwrites the peers file with the current set.
func (ps *PeerSet) Save(path string) error {
	data, err := json.Marshal(ps.Copy())
	if err != nil {
		return fmt.Errorf("marshal peers: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write peers: %w", err)
	}

	return nil
}

// Load merges the peers stored in the file into the set, respecting the
// capacity. A missing file is not an error, the node just starts empty.
func (ps *PeerSet) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read peers: %w", err)
	}

	var peers []Peer
	if err := json.Unmarshal(data, &peers); err != nil {
		return fmt.Errorf("decode peers: %w", err)
	}

	for _, peer := range peers {
		ps.Add(peer)
	}

	return nil
}
