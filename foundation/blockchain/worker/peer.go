package worker

import (
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/network"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// peerOperations handles the peer liveness and discovery pass on the
// configured interval.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	interval := time.Duration(w.state.Genesis().PingInterval * float64(time.Second))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			return
		}
	}
}

// runPeersOperation pings every known peer, evicts the ones that don't
// answer, tops the registry up from a random live peer when it runs low, and
// saves the result.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	self := peer.New(w.state.Host(), w.state.Port())

	for _, p := range w.state.KnownPeers() {
		at, err := network.Ping(p, self)
		if err != nil {
			w.evHandler("worker: runPeersOperation: evicting peer[%s]: %s", p, err)
			w.state.RemoveKnownPeer(p)
			continue
		}
		w.state.TouchKnownPeer(p, at)
	}

	if w.state.KnownPeersCount() < w.state.Genesis().MaxPeers/2 {
		w.discoverPeers()
	}

	if err := w.state.SavePeers(); err != nil {
		w.evHandler("worker: runPeersOperation: WARNING: save peers: %s", err)
	}
}

// discoverPeers asks one random live peer for its registry and merges it.
func (w *Worker) discoverPeers() {
	p, ok := w.state.RandomKnownPeer()
	if !ok {
		return
	}

	peers, err := network.GetPeers(p)
	if err != nil {
		w.evHandler("worker: discoverPeers: peer[%s]: %s", p, err)
		return
	}

	for _, candidate := range peers {
		if w.state.AddKnownPeer(candidate) {
			w.evHandler("worker: discoverPeers: adding peer[%s]", candidate)
		}
	}
}
