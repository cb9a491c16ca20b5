// Package syncer pairs optimistic local mutations with their remote calls and
// tracks the resulting sync state.
package syncer

import "sync"

// Kind is the coarse sync condition.
type Kind int

const (
	Synced Kind = iota
	Syncing
	Error
)

func (k Kind) String() string {
	switch k {
	case Synced:
		return "synced"
	case Syncing:
		return "syncing"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is the value of the sync signal. Reason is set for Error only.
type State struct {
	Kind   Kind
	Reason string
}

func (s State) String() string {
	if s.Kind == Error && s.Reason != "" {
		return "error: " + s.Reason
	}
	return s.Kind.String()
}

// Status is the per-session sync signal.
//
// It is a latch, not a queue: concurrent remote calls overwrite it and the
// last one to resolve wins. It reports liveness only; nothing gates on it.
type Status struct {
	mu        sync.Mutex
	cur       State
	observers map[int]func(State)
	nextObs   int
}

// NewStatus returns a Status in the Synced state.
func NewStatus() *Status {
	return &Status{observers: make(map[int]func(State))}
}

// Get returns the current state.
func (s *Status) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe registers fn to be called on every change. fn runs on the
// goroutine that caused the change and must not block.
func (s *Status) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Reset returns the signal to Synced.
func (s *Status) Reset() {
	s.set(State{Kind: Synced})
}

func (s *Status) set(next State) {
	s.mu.Lock()
	if s.cur == next {
		s.mu.Unlock()
		return
	}
	s.cur = next
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
