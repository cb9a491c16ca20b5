package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"todosync/internal/model"
)

// ErrNeverCreated is returned by RemoteID when the creating call failed, so
// the remote store has no such entity.
var ErrNeverCreated = errors.New("never created")

// Creations maps pending ids to the mutations creating them, so later remote
// calls addressing a pending entity can wait for its remote id.
type Creations struct {
	mu       sync.Mutex
	byID     map[model.ID]*Mutation
	resolved map[model.ID]model.ID
}

// NewCreations returns an empty tracker.
func NewCreations() *Creations {
	return &Creations{
		byID:     make(map[model.ID]*Mutation),
		resolved: make(map[model.ID]model.ID),
	}
}

// Track records m as the creation of pending.
func (c *Creations) Track(pending model.ID, m *Mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[pending] = m
}

// Resolve records the remote id assigned to pending.
func (c *Creations) Resolve(pending, remote model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved[pending] = remote
}

// Lookup returns the remote id of pending if it is already known.
func (c *Creations) Lookup(pending model.ID) (model.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.resolved[pending]
	return id, ok
}

// RemoteID returns the id the remote store knows id by. Remote ids are
// returned as is; pending ids wait for their creation to resolve.
func (c *Creations) RemoteID(ctx context.Context, id model.ID) (model.ID, error) {
	if !id.IsLocal() {
		return id, nil
	}
	if id.IsPlaceholder() {
		return "", fmt.Errorf("placeholder %s has no remote id", id)
	}

	c.mu.Lock()
	remote, ok := c.resolved[id]
	m := c.byID[id]
	c.mu.Unlock()
	if ok {
		return remote, nil
	}
	if m == nil {
		return "", fmt.Errorf("pending id %s: %w", id, model.ErrNotFound)
	}

	select {
	case <-m.Done():
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := m.Err(); err != nil {
		return "", fmt.Errorf("%s %w: %w", id, ErrNeverCreated, err)
	}
	if remote, ok := c.Lookup(id); ok {
		return remote, nil
	}
	return "", fmt.Errorf("pending id %s: %w", id, model.ErrNotFound)
}

// Clear forgets everything.
func (c *Creations) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[model.ID]*Mutation)
	c.resolved = make(map[model.ID]model.ID)
}
