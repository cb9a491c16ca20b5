package syncer

import (
	"context"
	"sync"
	"time"

	"todosync/internal/model"
)

// Op names the remote operation paired with a mutation.
type Op string

const (
	OpCreateList       Op = "createList"
	OpUpdateList       Op = "updateList"
	OpDeleteList       Op = "deleteList"
	OpCreateItem       Op = "createItem"
	OpUpdateItemBody   Op = "updateItemBody"
	OpUpdateItemStatus Op = "updateItemStatus"
	OpDeleteItem       Op = "deleteItem"
)

// Outcome is the remote confirmation result of a mutation.
type Outcome int

const (
	Pending Outcome = iota
	Confirmed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Mutation records one optimistic local change and, once known, the outcome
// of the remote call that persists it.
type Mutation struct {
	ID        string
	Op        Op
	Target    model.ID
	AppliedAt time.Time

	done chan struct{}

	mu         sync.Mutex
	outcome    Outcome
	err        error
	resolvedAt time.Time
}

func newMutation(id string, op Op, target model.ID, at time.Time) *Mutation {
	return &Mutation{ID: id, Op: op, Target: target, AppliedAt: at, done: make(chan struct{})}
}

// Done is closed once the remote call resolved and its hooks ran.
func (m *Mutation) Done() <-chan struct{} { return m.done }

// Outcome returns the current outcome.
func (m *Mutation) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Err returns the remote failure, or nil.
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ResolvedAt returns when the remote call resolved, or the zero time.
func (m *Mutation) ResolvedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolvedAt
}

// Wait blocks until the mutation resolved and returns its error.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mutation) resolve(err error, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	m.resolvedAt = at
	if err != nil {
		m.outcome = Failed
	} else {
		m.outcome = Confirmed
	}
}
