package session

import "sync"

// Broadcast carries logout events between session managers, the way a
// browser storage event reaches every tab. Subscribers must erase local
// state only; re-publishing from a handler would loop.
type Broadcast interface {
	Publish()
	Subscribe(fn func()) (unsubscribe func())
}

// MemoryBroadcast is an in-process Broadcast fan-out. A single instance is
// shared by every manager that should observe the same logout events.
type MemoryBroadcast struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func()
}

func NewMemoryBroadcast() *MemoryBroadcast {
	return &MemoryBroadcast{handlers: make(map[int]func())}
}

// Publish invokes every subscribed handler. Handlers run outside the
// broadcast lock so they may subscribe or unsubscribe freely.
func (b *MemoryBroadcast) Publish() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.handlers))
	for _, fn := range b.handlers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (b *MemoryBroadcast) Subscribe(fn func()) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}
