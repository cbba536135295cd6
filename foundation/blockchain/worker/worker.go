// Package worker implements mining, peer liveness, and chain sync goroutines
// for the node.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/qbitcoin/qbitcoin/foundation/blockchain/state"
)

// Worker manages the blockchain workflows that run in the background.
type Worker struct {
	state         *state.State
	wg            sync.WaitGroup
	shut          chan struct{}
	startMining   chan bool
	cancelMining  chan bool
	miningEnabled atomic.Bool
	evHandler     state.EventHandler
}

// Run creates a worker, registers it with the state, performs an initial
// chain sync against the known peers, and starts the mining, peer, and sync
// operations.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:        st,
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		evHandler:    evHandler,
	}

	// Register this worker with the state so consensus events can signal
	// the mining operation.
	st.Worker = &w

	// Catch up to the network before producing blocks of our own.
	w.Sync()

	operations := []func(){
		w.miningOperations,
		w.peerOperations,
		w.syncOperations,
	}

	g := len(operations)
	w.wg.Add(g)

	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Don't return until all G's are up and running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	w.SignalStartMining()
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.SignalStopMining()
	close(w.shut)
	w.wg.Wait()
}

// =============================================================================

// SignalStartMining enables the mining loop and kicks it awake.
func (w *Worker) SignalStartMining() {
	w.miningEnabled.Store(true)

	select {
	case w.startMining <- true:
	default:
	}

	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalStopMining disables the mining loop and cancels any search in flight.
func (w *Worker) SignalStopMining() {
	w.miningEnabled.Store(false)
	w.SignalCancelMining()

	w.evHandler("worker: SignalStopMining: mining stopped")
}

// SignalCancelMining cancels the proof of work search in flight, if any. The
// mining loop decides on its own whether to start over.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
