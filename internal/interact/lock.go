package interact

import "sync"

// Lock is the grid-wide interaction lock. Every box acquires it when a
// gesture starts and releases it when the gesture ends; subscribers are told
// about both so the grid can ignore empty-slot clicks while anything is being
// dragged.
type Lock struct {
	mu     sync.Mutex
	active int
	nextID int
	subs   map[int]func(active bool)
}

// NewLock returns an idle lock.
func NewLock() *Lock {
	return &Lock{subs: make(map[int]func(bool))}
}

// Subscribe registers fn for gesture start (true) and end (false)
// notifications. The returned func removes the subscription.
func (l *Lock) Subscribe(fn func(active bool)) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[int]func(bool))
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// Busy reports whether any gesture is in flight.
func (l *Lock) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active > 0
}

func (l *Lock) acquire() {
	l.mu.Lock()
	l.active++
	subs := l.snapshotSubs()
	l.mu.Unlock()
	for _, fn := range subs {
		fn(true)
	}
}

func (l *Lock) release() {
	l.mu.Lock()
	if l.active == 0 {
		l.mu.Unlock()
		return
	}
	l.active--
	subs := l.snapshotSubs()
	l.mu.Unlock()
	for _, fn := range subs {
		fn(false)
	}
}

// snapshotSubs copies subscribers so callbacks run without holding mu.
func (l *Lock) snapshotSubs() []func(bool) {
	out := make([]func(bool), 0, len(l.subs))
	for _, fn := range l.subs {
		out = append(out, fn)
	}
	return out
}
