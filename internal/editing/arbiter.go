// Package editing enforces that at most one item is in edit mode at a time.
package editing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"todosync/internal/gateway"
	"todosync/internal/model"
	"todosync/internal/repository"
	"todosync/internal/syncer"
)

// KeyEnter is the key code that commits the current edit.
const KeyEnter = 13

// State is Idle (zero value) or Editing{ItemID}.
type State struct {
	editing bool
	itemID  model.ID
}

// Idle is the state with no item in edit mode.
var Idle = State{}

// Editing returns the state with itemID in edit mode.
func Editing(itemID model.ID) State { return State{editing: true, itemID: itemID} }

// IsIdle reports whether no item is being edited.
func (s State) IsIdle() bool { return !s.editing }

// ItemID returns the item being edited and true, or "" and false when idle.
func (s State) ItemID() (model.ID, bool) { return s.itemID, s.editing }

func (s State) String() string {
	if !s.editing {
		return "idle"
	}
	return fmt.Sprintf("editing(%s)", s.itemID)
}

// Result tells what a RequestEdit did.
type Result int

const (
	// Disabled: the target cannot be edited (placeholder or unknown item).
	Disabled Result = iota
	// Ignored: another item is being edited.
	Ignored
	// Started: the target entered edit mode.
	Started
	// Committed: the target left edit mode and its body is being persisted.
	Committed
)

func (r Result) String() string {
	switch r {
	case Disabled:
		return "disabled"
	case Ignored:
		return "ignored"
	case Started:
		return "started"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Arbiter owns the edit state of the active session.
type Arbiter struct {
	repo      *repository.Repository
	coord     *syncer.Coordinator
	gw        gateway.Gateway
	creations *syncer.Creations
	log       *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an idle Arbiter.
func New(repo *repository.Repository, coord *syncer.Coordinator, gw gateway.Gateway, creations *syncer.Creations, log *slog.Logger) *Arbiter {
	if log == nil {
		log = slog.Default()
	}
	return &Arbiter{repo: repo, coord: coord, gw: gw, creations: creations, log: log}
}

// State returns the current edit state.
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Editing returns the item in edit mode, if any.
func (a *Arbiter) Editing() (model.ID, bool) {
	return a.State().ItemID()
}

// RequestEdit toggles edit mode on itemID.
//
// While another item is editing the request is ignored. On the item being
// edited it commits: the item goes back to idle and its current body, empty
// or not, is persisted. The returned mutation is set for Committed only.
func (a *Arbiter) RequestEdit(ctx context.Context, itemID model.ID) (Result, *syncer.Mutation, error) {
	if itemID.IsPlaceholder() {
		return Disabled, nil, nil
	}
	itemID = a.canonical(itemID)
	item, _, err := a.repo.FindItem(itemID)
	if err != nil {
		a.log.Debug("edit request on missing item", "item", itemID, "err", err)
		return Disabled, nil, err
	}

	a.mu.Lock()
	current, editing := a.state.ItemID()
	switch {
	case !editing:
		a.state = Editing(itemID)
		a.mu.Unlock()
		return Started, nil, nil
	case current != itemID:
		a.mu.Unlock()
		return Ignored, nil, nil
	}
	a.state = Idle
	a.mu.Unlock()

	if item, _, err = a.repo.FindItem(itemID); err != nil {
		return Disabled, nil, err
	}
	m := a.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpUpdateItemBody,
		Target: itemID,
		Call: func(ctx context.Context) error {
			remoteID, err := a.creations.RemoteID(ctx, itemID)
			if err != nil {
				return err
			}
			return a.gw.UpdateItemBody(ctx, remoteID, item.Body)
		},
	})
	return Committed, m, nil
}

// SetDraft changes the local body of the item being edited. Nothing is sent
// to the remote store until the edit is committed.
func (a *Arbiter) SetDraft(itemID model.ID, body string) error {
	itemID = a.canonical(itemID)
	a.mu.Lock()
	current, editing := a.state.ItemID()
	a.mu.Unlock()
	if !editing || current != itemID {
		return fmt.Errorf("item %s is not being edited", itemID)
	}
	return a.repo.UpdateItem(itemID, repository.Patch{Body: &body})
}

// HandleKey commits the edit of itemID when key is Enter.
func (a *Arbiter) HandleKey(ctx context.Context, itemID model.ID, key int) (Result, *syncer.Mutation, error) {
	if key != KeyEnter {
		return Ignored, nil, nil
	}
	itemID = a.canonical(itemID)
	a.mu.Lock()
	current, editing := a.state.ItemID()
	a.mu.Unlock()
	if !editing || current != itemID {
		return Ignored, nil, nil
	}
	return a.RequestEdit(ctx, itemID)
}

// Cancel leaves edit mode without persisting.
func (a *Arbiter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Idle
}

// Release leaves edit mode if itemID is the item being edited.
func (a *Arbiter) Release(itemID model.ID) {
	itemID = a.canonical(itemID)
	a.mu.Lock()
	defer a.mu.Unlock()
	if current, editing := a.state.ItemID(); editing && current == itemID {
		a.state = Idle
	}
}

// Rekey follows an id reconciliation of the item being edited.
func (a *Arbiter) Rekey(oldID, newID model.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if current, editing := a.state.ItemID(); editing && current == oldID {
		a.state = Editing(newID)
	}
}

// canonical maps a reconciled pending id to its remote id.
func (a *Arbiter) canonical(id model.ID) model.ID {
	if id.IsPending() {
		if remote, ok := a.creations.Lookup(id); ok {
			return remote
		}
	}
	return id
}
