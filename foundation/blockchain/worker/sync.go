package worker

import (
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/network"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/peer"
)

// syncOperations handles the periodic chain sync pass.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	interval := time.Duration(w.state.Genesis().SyncInterval * float64(time.Second))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runSyncOperation()
			}
		case <-w.shut:
			return
		}
	}
}

// Sync performs one full sync pass immediately. Run calls this at startup so
// the node catches up before it starts mining.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	w.runSyncOperation()
}

// runSyncOperation probes every known peer for its height and downloads the
// missing blocks from the tallest one. Blocks are applied in order through
// the same validation inbound gossip goes through, so a bad segment stops
// the sync where it breaks.
func (w *Worker) runSyncOperation() {
	local := w.state.Height()

	var best peer.Peer
	var bestHeight uint64
	var found bool

	for _, p := range w.state.KnownPeers() {
		height, err := network.ProbeHeight(p)
		if err != nil {
			w.evHandler("worker: runSyncOperation: probe peer[%s]: %s", p, err)
			continue
		}
		if height > local && (!found || height > bestHeight) {
			best = p
			bestHeight = height
			found = true
		}
	}

	if !found {
		return
	}

	w.evHandler("worker: runSyncOperation: peer[%s] height[%d] local[%d]", best, bestHeight, local)

	blocks, err := network.GetBlocks(best, int64(local)+1, -1)
	if err != nil {
		w.evHandler("worker: runSyncOperation: download from peer[%s]: %s", best, err)
		return
	}

	for _, block := range blocks {
		if err := w.state.AcceptPeerBlock(block); err != nil {
			w.evHandler("worker: runSyncOperation: block[%d] rejected: %s", block.Index, err)
			return
		}
	}
}
