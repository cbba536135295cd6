package worker

import (
	"context"
	"errors"
	"time"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/state"
)

// miningCooldown is how long the loop backs off after a mining error before
// trying again.
const miningCooldown = 5 * time.Second

// miningOperations handles requests to start the continuous mining loop.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			return
		}
	}
}

// runMiningOperation mines blocks back to back until mining is stopped or
// the node shuts down. Every solved block goes straight out to the peers.
func (w *Worker) runMiningOperation() {
	for w.miningEnabled.Load() && !w.isShutdown() {

		// A cancel signal from before this block started is stale.
		select {
		case <-w.cancelMining:
		default:
		}

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			select {
			case <-w.cancelMining:
				cancel()
			case <-w.shut:
				cancel()
			case <-done:
			}
		}()

		block, err := w.state.MineNextBlock(ctx)
		close(done)
		cancel()

		switch {
		case errors.Is(err, context.Canceled):
			w.evHandler("worker: runMiningOperation: search cancelled")

		case errors.Is(err, state.ErrStaleTip):
			w.evHandler("worker: runMiningOperation: tip moved, block discarded")

		case err != nil:
			w.evHandler("worker: runMiningOperation: ERROR: %s", err)
			time.Sleep(miningCooldown)

		default:
			w.state.NetSendBlockToPeers(block)
		}
	}
}
