package assetbus

import "sync"

// Bus is an in-process publish/subscribe hub for asset events. It implements
// both Source and Publisher.
//
// Publish snapshots the connected handlers and invokes them on the caller's
// goroutine without holding the bus lock, so handlers may call Connect or
// Disconnect, and callers may hold their own locks across Connect/Disconnect.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus { return &Bus{} }

// Connect subscribes h. Connecting an already connected handler is a no-op.
// Handlers are compared by identity, so they should be pointers.
func (b *Bus) Connect(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cur := range b.handlers {
		if cur == h {
			return
		}
	}
	// copy-on-write so snapshots taken by Publish stay immutable
	next := make([]Handler, len(b.handlers), len(b.handlers)+1)
	copy(next, b.handlers)
	b.handlers = append(next, h)
}

// Disconnect unsubscribes h. Unknown handlers are ignored.
func (b *Bus) Disconnect(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.handlers {
		if cur == h {
			next := make([]Handler, 0, len(b.handlers)-1)
			next = append(next, b.handlers[:i]...)
			b.handlers = append(next, b.handlers[i+1:]...)
			return
		}
	}
}

// Connected reports the number of subscribed handlers.
func (b *Bus) Connected() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := b.handlers
	b.mu.RUnlock()
	for _, h := range hs {
		Dispatch(h, e)
	}
}
