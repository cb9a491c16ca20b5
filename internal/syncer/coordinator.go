package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"todosync/internal/model"
)

// Request describes one optimistic mutation.
type Request struct {
	Op     Op
	Target model.ID

	// Apply changes local state. It runs synchronously inside Run.
	Apply func()

	// Call persists the change remotely. It runs on its own goroutine.
	Call func(ctx context.Context) error

	// OnConfirm runs after a successful Call, before the mutation is marked done.
	OnConfirm func()

	// OnFail runs after a failed Call with the wrapped *model.RemoteError.
	OnFail func(err error)
}

// Coordinator drives optimistic mutation, remote call and reconciliation.
//
// A failed call leaves local state as applied; the failure is surfaced through
// the Status and the failure handler, never rolled back. There is no retry.
type Coordinator struct {
	status    *Status
	log       *slog.Logger
	onFailure func(*Mutation)
	now       func() time.Time

	mu          sync.Mutex
	inflight    map[string]*Mutation
	lastFailure *Mutation
	active      int           // calls not yet finished, hooks included
	idle        chan struct{} // closed when active drops to zero
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithFailureHandler sets a function called for every failed mutation.
func WithFailureHandler(fn func(*Mutation)) Option {
	return func(c *Coordinator) { c.onFailure = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator reporting to status.
func NewCoordinator(status *Status, opts ...Option) *Coordinator {
	c := &Coordinator{
		status:   status,
		log:      slog.Default(),
		now:      time.Now,
		inflight: make(map[string]*Mutation),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the sync signal.
func (c *Coordinator) Status() *Status { return c.status }

// Run applies req locally, marks the state syncing and issues the remote call
// in the background. It returns the pending mutation without waiting.
func (c *Coordinator) Run(ctx context.Context, req Request) *Mutation {
	c.begin()
	m := newMutation(uuid.NewString(), req.Op, req.Target, c.now())

	if req.Apply != nil {
		req.Apply()
	}
	c.status.set(State{Kind: Syncing})

	c.mu.Lock()
	c.inflight[m.ID] = m
	c.mu.Unlock()

	c.log.Debug("mutation applied", "mutation", m.ID, "op", m.Op, "target", m.Target)

	go func() {
		defer c.end()

		var err error
		if req.Call != nil {
			err = model.NewRemoteError(string(req.Op), req.Call(ctx))
		}
		c.finish(m, req, err)
	}()

	return m
}

func (c *Coordinator) finish(m *Mutation, req Request, err error) {
	m.resolve(err, c.now())

	c.mu.Lock()
	delete(c.inflight, m.ID)
	if err != nil {
		c.lastFailure = m
	}
	c.mu.Unlock()

	if err != nil {
		c.status.set(State{Kind: Error, Reason: err.Error()})
		c.log.Warn("remote call failed", "mutation", m.ID, "op", m.Op, "target", m.Target, "err", err)
		if req.OnFail != nil {
			req.OnFail(err)
		}
		if c.onFailure != nil {
			c.onFailure(m)
		}
	} else {
		c.status.set(State{Kind: Synced})
		c.log.Debug("remote call confirmed", "mutation", m.ID, "op", m.Op, "target", m.Target)
		if req.OnConfirm != nil {
			req.OnConfirm()
		}
	}
	close(m.done)
}

// Pending returns the mutations whose remote call has not resolved.
func (c *Coordinator) Pending() []*Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Mutation, 0, len(c.inflight))
	for _, m := range c.inflight {
		out = append(out, m)
	}
	return out
}

// LastFailure returns the most recent failed mutation, or nil.
func (c *Coordinator) LastFailure() *Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailure
}

func (c *Coordinator) begin() {
	c.mu.Lock()
	c.active++
	if c.idle == nil {
		c.idle = make(chan struct{})
	}
	c.mu.Unlock()
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.active--
	if c.active == 0 {
		close(c.idle)
		c.idle = nil
	}
	c.mu.Unlock()
}

// Wait blocks until every in-flight call has resolved, including calls
// started by hooks of resolving calls. It may be called concurrently with Run.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears the failure record and returns the status to Synced.
// Used on session teardown after Wait.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.lastFailure = nil
	c.mu.Unlock()
	c.status.Reset()
}
