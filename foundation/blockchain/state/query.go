package state

import (
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/database"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/genesis"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Host returns the advertised host for this node.
func (s *State) Host() string {
	return s.host
}

// Port returns the advertised gossip port for this node.
func (s *State) Port() int {
	return s.port
}

// LatestBlock returns a copy of the current tip of the chain.
func (s *State) LatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain[len(s.chain)-1]
}

// Height returns the index of the current tip. The genesis block is height 0.
func (s *State) Height() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.chain) - 1)
}

// Difficulty returns the current proof of work difficulty.
func (s *State) Difficulty() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.difficulty
}

// MempoolCount returns the number of transactions waiting to be mined.
func (s *State) MempoolCount() int {
	return s.mempool.Count()
}

// Mempool returns a copy of the pending transactions in selection order.
func (s *State) Mempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveBlocks returns a copy of the chain segment [start, end]. Negative
// indexes count back from the tip, so start -1 / end -1 yields just the
// latest block. Out of range values are clamped to the chain bounds and an
// empty range yields an empty slice. These inputs arrive straight off the
// wire, so no combination of values may escape the clamp.
func (s *State) RetrieveBlocks(start int64, end int64) []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.chain))

	if start < 0 {
		start = n + start
	}
	if end < 0 {
		end = n + end
	}

	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if end < 0 || start > end {
		return []database.Block{}
	}

	blocks := make([]database.Block, end-start+1)
	copy(blocks, s.chain[start:end+1])

	return blocks
}

// Balance replays the whole chain and returns the spendable funds for the
// specified account. Pending transactions are not included.
func (s *State) Balance(account string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var balance float64
	for _, block := range s.chain {
		for _, tx := range block.Transactions {
			if tx.Recipient == account {
				balance += tx.Amount
			}
			if tx.Sender == account {
				balance -= tx.Amount + tx.Fee
			}
		}
	}

	return balance
}

// KnownPeers returns a copy of the current peer registry.
func (s *State) KnownPeers() []peer.Peer {
	return s.knownPeers.Copy()
}

// KnownPeersCount returns the number of peers in the registry.
func (s *State) KnownPeersCount() int {
	return s.knownPeers.Count()
}

// RandomKnownPeer returns a random peer from the registry, and false when the
// registry is empty.
func (s *State) RandomKnownPeer() (peer.Peer, bool) {
	return s.knownPeers.Random()
}

// AddKnownPeer adds a peer to the registry, ignoring this node's own
// address. It reports whether the registry changed.
func (s *State) AddKnownPeer(p peer.Peer) bool {
	if p.Match(s.host, s.port) {
		return false
	}

	return s.knownPeers.Add(p)
}

// RemoveKnownPeer drops a peer from the registry.
func (s *State) RemoveKnownPeer(p peer.Peer) {
	s.knownPeers.Remove(p)
}

// TouchKnownPeer records when a peer last answered a ping.
func (s *State) TouchKnownPeer(p peer.Peer, at float64) {
	s.knownPeers.Touch(p, at)
}

// LastSeenKnownPeer returns the last recorded answer time for a peer, or
// zero when the peer never answered.
func (s *State) LastSeenKnownPeer(p peer.Peer) float64 {
	return s.knownPeers.LastSeen(p)
}
