package gesture

import (
	"context"
	"sync"
)

// EventKind discriminates the three touch event kinds the interpreter
// understands.
type EventKind int

const (
	TouchStart EventKind = iota
	TouchMove
	TouchEnd
)

// Event is one touch event translated by the host surface. Y is the pointer's
// vertical coordinate in the surface's logical units. ScrollTop is the
// tracked scrollable region's offset from its top at the time of the event.
// InScope marks events whose target lies inside the pull-to-refresh region;
// out-of-scope starts never open a session.
type Event struct {
	Kind      EventKind
	Y         float64
	ScrollTop float64
	InScope   bool
}

// Handler consumes one event. Returning true tells the host to suppress its
// default scroll handling for that event.
type Handler func(Event) bool

// Source delivers touch events to subscribers. Subscribe returns a cancel
// function that is guaranteed to stop delivery.
type Source interface {
	Subscribe(Handler) (cancel func())
}

// Bus is a push-based Source for hosts that translate their own input events.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns its cancel function.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = h
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers ev to all subscribers and reports whether any consumed it.
func (b *Bus) Publish(ev Event) bool {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	consumed := false
	for _, h := range handlers {
		if h(ev) {
			consumed = true
		}
	}
	return consumed
}

// Handle is a scoped event subscription. Close is idempotent and guarantees
// the listener is removed; callers must Close on every exit path (teardown,
// reconfiguration, error).
type Handle struct {
	once   sync.Once
	cancel func()
}

// Close removes the subscription. Safe to call more than once.
func (h *Handle) Close() {
	h.once.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
	})
}

// Attach subscribes the interpreter to src and runs triggered refreshes on
// their own goroutine. When the interpreter is disabled it subscribes
// nothing and returns an inert handle.
func (it *Interpreter) Attach(src Source) *Handle {
	if it.cfg.Disabled {
		return &Handle{}
	}
	cancel := src.Subscribe(func(ev Event) bool {
		consumed, refresh := it.HandleEvent(ev)
		if refresh != nil {
			go func() { _ = refresh(context.Background()) }()
		}
		return consumed
	})
	return &Handle{cancel: cancel}
}
