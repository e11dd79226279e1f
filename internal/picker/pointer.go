package picker

import "sync"

// Target describes where a pointer-down landed.
type Target struct {
	// Popup is the id of the popup containing the element, empty when the
	// element is outside every popup.
	Popup string
	// Element identifies the element itself, e.g. a trigger button id.
	Element string
}

// Pointer fans pointer-down events out to subscribers.
type Pointer struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Target)
}

// NewPointer creates a Pointer with no subscribers.
func NewPointer() *Pointer {
	return &Pointer{subs: make(map[int]func(Target))}
}

// Subscribe registers fn for every subsequent pointer-down until the
// returned Subscription is cancelled.
func (p *Pointer) Subscribe(fn func(Target)) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	p.subs[p.next] = fn
	return &Subscription{pointer: p, id: p.next}
}

// Dispatch delivers a pointer-down to the current subscribers. Handlers may
// unsubscribe while being called.
func (p *Pointer) Dispatch(t Target) {
	p.mu.Lock()
	handlers := make([]func(Target), 0, len(p.subs))
	for _, fn := range p.subs {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(t)
	}
}

// Len returns the number of live subscriptions.
func (p *Pointer) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Subscription is a live Pointer registration.
type Subscription struct {
	pointer *Pointer
	id      int
	once    sync.Once
}

// Unsubscribe stops delivery. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.pointer.mu.Lock()
		delete(s.pointer.subs, s.id)
		s.pointer.mu.Unlock()
	})
}
