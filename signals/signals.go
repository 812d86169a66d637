package signals

import "sync"

// Topic[T] delivers published values to every subscriber, in subscription
// order. The zero value is ready to use.
// No build tags, fully testable outside WASM.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(T)
	order  []uint64
}

// Subscribe registers fn to be called on every Publish.
// The returned unsubscribe func is safe to call more than once; only the
// first call has an effect.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[uint64]func(T))
	}
	t.nextID++
	id := t.nextID
	t.subs[id] = fn
	t.order = append(t.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

func (t *Topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[id]; !ok {
		return
	}
	delete(t.subs, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Publish calls every subscriber with v.
// Subscribers may unsubscribe from within the callback.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	fns := make([]func(T), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.subs[id])
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of live subscriptions.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Event is a parameterless notification.
type Event struct {
	topic Topic[struct{}]
}

// NewEvent creates an Event with no subscribers.
func NewEvent() *Event {
	return &Event{}
}

// Subscribe registers fn to be called on every Fire.
// Unsubscribing twice is harmless.
func (e *Event) Subscribe(fn func()) (unsubscribe func()) {
	return e.topic.Subscribe(func(struct{}) { fn() })
}

// Fire notifies every subscriber.
func (e *Event) Fire() {
	e.topic.Publish(struct{}{})
}

// Len returns the number of live subscriptions.
func (e *Event) Len() int {
	return e.topic.Len()
}

// Signal[T] is a reactive value that notifies subscribers when changed.
type Signal[T any] struct {
	mu      sync.RWMutex
	value   T
	equal   func(a, b T) bool
	changed Topic[T]
}

// NewSignal creates a Signal with an initial value.
// If equal is non-nil, Set skips notification when the new value is equal
// to the current one.
func NewSignal[T any](initial T, equal func(a, b T) bool) *Signal[T] {
	return &Signal[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the value and notifies all subscribers.
// It reports whether subscribers were notified.
func (s *Signal[T]) Set(v T) bool {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.value, v) {
		s.mu.Unlock()
		return false
	}
	s.value = v
	s.mu.Unlock()

	s.changed.Publish(v)
	return true
}

// Subscribe registers a callback fired with the new value when it changes.
// Returns an unsubscribe func; call it in Dispose to avoid memory leaks.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return s.changed.Subscribe(fn)
}
