// Package events fans node activity out to subscribers. The state and worker
// layers emit one line per event (mining progress, gossip traffic, peer
// changes) and every subscriber holds its own buffered channel.
package events

import (
	"fmt"
	"sync"
)

// Events maps subscriber ids to their delivery channels.
type Events struct {
	m  map[string]chan string
	mu sync.RWMutex
}

// New constructs an empty subscriber registry.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes every channel handed out by Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire returns the delivery channel for the given subscriber id, creating
// it on first use.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// A websocket write can stall for seconds. The buffer absorbs node
	// activity in the meantime so a briefly slow client misses nothing.
	const messageBuffer = 100

	evt.m[id] = make(chan string, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel for the given subscriber id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send delivers the message to every subscriber without blocking. When a
// subscriber's buffer is full the message is dropped for that subscriber
// rather than stalling the emitting goroutine.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}
