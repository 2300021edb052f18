package session

import "sync"

// UnauthorizedBridge is the process-wide channel the HTTP layer uses to tell
// the session layer a request came back 401, without either side importing
// the other. Dispatch is synchronous and unbuffered: a publish that happens
// before any subscriber registers is lost, matching the tab-lifetime
// semantics of the original broadcast channel.
type UnauthorizedBridge struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func NewUnauthorizedBridge() *UnauthorizedBridge {
	return &UnauthorizedBridge{
		subs: map[int]func(){},
	}
}

// Subscribe registers fn and returns its deregistration func. Both are safe
// to call from any goroutine; deregistering twice is a no-op.
func (b *UnauthorizedBridge) Subscribe(fn func()) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish invokes every registered subscriber before returning. Subscriber
// callbacks run outside the bridge lock so they may re-subscribe or
// unsubscribe without deadlocking.
func (b *UnauthorizedBridge) Publish() {
	b.mu.Lock()
	handlers := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
