package event

import "sync"

// Bus collects state-change reasons raised during a tick and delivers a
// single StateChanged to subscribers when the tick flushes it. Raise is
// called from the simulation goroutine only.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	pending  Reason
	handlers []func(StateChanged)
}

func NewBus() *Bus {
	return &Bus{}
}

// Raise records that visible state changed for reason r.
func (b *Bus) Raise(r Reason) {
	b.pending |= r
}

// Pending returns the reasons raised since the last flush.
func (b *Bus) Pending() Reason { return b.pending }

// Subscribe registers a handler for StateChanged notifications.
func (b *Bus) Subscribe(fn func(StateChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Flush delivers the pending reasons, if any, and resets them.
// Returns false when nothing changed this tick.
func (b *Bus) Flush(tick uint64) bool {
	if b.pending == 0 {
		return false
	}
	ev := StateChanged{Tick: tick, Reasons: b.pending}
	b.pending = 0

	b.mu.Lock()
	handlers := make([]func(StateChanged), len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return true
}
