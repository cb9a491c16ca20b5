// Package lifecycle creates, selects and deletes lists and items on top of the
// repository, pairing every mutation with its remote call.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"todosync/internal/editing"
	"todosync/internal/gateway"
	"todosync/internal/model"
	"todosync/internal/repository"
	"todosync/internal/syncer"
)

// ConfirmKind tells what an open delete confirmation is about.
type ConfirmKind int

const (
	ConfirmList ConfirmKind = iota
	ConfirmItem
)

func (k ConfirmKind) String() string {
	if k == ConfirmItem {
		return "item"
	}
	return "list"
}

// Confirmation is an open delete dialog.
type Confirmation struct {
	Kind  ConfirmKind
	ID    model.ID
	Label string
}

// ErrNothingToConfirm is returned by Confirm when no dialog is open.
var ErrNothingToConfirm = errors.New("no deletion awaiting confirmation")

// Controller orchestrates list and item lifecycles.
type Controller struct {
	repo      *repository.Repository
	coord     *syncer.Coordinator
	gw        gateway.Gateway
	creations *syncer.Creations
	arb       *editing.Arbiter
	notify    Notifier
	log       *slog.Logger

	mu       sync.Mutex
	selected model.ID
	confirm  *Confirmation
}

// Deps groups the collaborators of a Controller.
type Deps struct {
	Repo      *repository.Repository
	Coord     *syncer.Coordinator
	Gateway   gateway.Gateway
	Creations *syncer.Creations
	Arbiter   *editing.Arbiter
	Notify    Notifier
	Log       *slog.Logger
}

// New creates a Controller.
func New(d Deps) *Controller {
	c := &Controller{
		repo:      d.Repo,
		coord:     d.Coord,
		gw:        d.Gateway,
		creations: d.Creations,
		arb:       d.Arbiter,
		notify:    d.Notify,
		log:       d.Log,
	}
	if c.notify == nil {
		c.notify = func(Notice) {}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// ValidateListName checks a list name; call it on blur and again on submit.
func (c *Controller) ValidateListName(name string) error {
	return model.ValidateListName(name)
}

// CreateList adds a list optimistically under a pending id and creates it
// remotely. The new list starts with the placeholder item. The pending id is
// replaced by the remote id once the store confirms.
func (c *Controller) CreateList(ctx context.Context, name, color string) (model.ID, *syncer.Mutation, error) {
	if err := c.ValidateListName(name); err != nil {
		return "", nil, err
	}
	name = strings.TrimSpace(name)
	if color == "" {
		color = model.DefaultColor
	}

	pending := c.repo.NewPendingID()
	var created model.ID
	m := c.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpCreateList,
		Target: pending,
		Apply: func() {
			c.repo.AddList(model.TaskList{ID: pending, Name: name, Color: color})
		},
		Call: func(ctx context.Context) error {
			l, err := c.gw.CreateList(ctx, name, color)
			if err != nil {
				return err
			}
			created = l.ID
			return nil
		},
		OnConfirm: func() {
			c.reconcile(pending, created)
			c.notify(Notice{Level: Info, Message: MsgListAdded})
		},
	})
	c.creations.Track(pending, m)
	return pending, m, nil
}

// UpdateList renames and recolors a list.
func (c *Controller) UpdateList(ctx context.Context, id model.ID, name, color string) (*syncer.Mutation, error) {
	if err := c.ValidateListName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	id = c.canonical(id)
	current, err := c.repo.FindList(id)
	if err != nil {
		return nil, err
	}
	if color == "" {
		color = current.Color
	}

	return c.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpUpdateList,
		Target: id,
		Apply: func() {
			c.ignoreMissing("update list", c.repo.UpdateList(id, repository.ListPatch{Name: &name, Color: &color}))
		},
		Call: func(ctx context.Context) error {
			remote, err := c.creations.RemoteID(ctx, id)
			if err != nil {
				return err
			}
			return c.gw.UpdateList(ctx, remote, name, color)
		},
	}), nil
}

// RequestDeleteList opens the delete confirmation for a list. The last
// remaining list cannot be deleted; that is refused before any dialog opens.
func (c *Controller) RequestDeleteList(id model.ID) error {
	id = c.canonical(id)
	if c.repo.Len() <= 1 {
		c.notify(Notice{Level: Error, Message: MsgNeedOneList})
		return model.NewValidationError("list", "must have at least one list")
	}
	l, err := c.repo.FindList(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirm = &Confirmation{Kind: ConfirmList, ID: id, Label: l.Name}
	return nil
}

// RequestDeleteItem opens the delete confirmation for an item.
func (c *Controller) RequestDeleteItem(id model.ID) error {
	if id.IsPlaceholder() {
		return model.NewValidationError("item", "placeholder cannot be deleted")
	}
	id = c.canonical(id)
	it, _, err := c.repo.FindItem(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirm = &Confirmation{Kind: ConfirmItem, ID: id, Label: it.Body}
	return nil
}

// Confirmation returns the open delete dialog, if any.
func (c *Controller) Confirmation() (Confirmation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.confirm == nil {
		return Confirmation{}, false
	}
	return *c.confirm, true
}

// Cancel closes the delete dialog without deleting.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirm = nil
}

// Confirm closes the delete dialog and dispatches the deletion. A target that
// vanished in the meantime is a no-op and returns a nil mutation.
func (c *Controller) Confirm(ctx context.Context) (*syncer.Mutation, error) {
	c.mu.Lock()
	conf := c.confirm
	c.confirm = nil
	c.mu.Unlock()
	if conf == nil {
		return nil, ErrNothingToConfirm
	}

	id := c.canonical(conf.ID)
	switch conf.Kind {
	case ConfirmList:
		return c.deleteList(ctx, id)
	default:
		return c.deleteItem(ctx, id)
	}
}

func (c *Controller) deleteList(ctx context.Context, id model.ID) (*syncer.Mutation, error) {
	l, err := c.repo.FindList(id)
	if err != nil {
		c.log.Debug("delete of missing list", "list", id, "err", err)
		return nil, nil
	}
	if c.repo.Len() <= 1 {
		c.notify(Notice{Level: Error, Message: MsgNeedOneList})
		return nil, model.NewValidationError("list", "must have at least one list")
	}

	return c.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpDeleteList,
		Target: id,
		Apply: func() {
			if editingID, ok := c.arb.State().ItemID(); ok {
				for _, it := range l.Items {
					if it.ID == editingID {
						c.arb.Cancel()
					}
				}
			}
			idx := c.repo.IndexOf(id)
			c.ignoreMissing("delete list", c.repo.RemoveList(id))
			c.mu.Lock()
			if c.selected == id {
				c.selected = c.neighbor(idx)
			}
			c.mu.Unlock()
		},
		Call: func(ctx context.Context) error {
			remote, err := c.creations.RemoteID(ctx, id)
			if errors.Is(err, syncer.ErrNeverCreated) {
				c.log.Debug("delete of list that was never created", "list", id)
				return nil
			}
			if err != nil {
				return err
			}
			return c.gw.DeleteList(ctx, remote)
		},
	}), nil
}

func (c *Controller) deleteItem(ctx context.Context, id model.ID) (*syncer.Mutation, error) {
	if _, _, err := c.repo.FindItem(id); err != nil {
		c.log.Debug("delete of missing item", "item", id, "err", err)
		return nil, nil
	}

	return c.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpDeleteItem,
		Target: id,
		Apply: func() {
			c.arb.Release(id)
			c.ignoreMissing("delete item", c.repo.RemoveItem(id))
		},
		Call: func(ctx context.Context) error {
			remote, err := c.creations.RemoteID(ctx, id)
			if errors.Is(err, syncer.ErrNeverCreated) {
				c.log.Debug("delete of item that was never created", "item", id)
				return nil
			}
			if err != nil {
				return err
			}
			return c.gw.DeleteItem(ctx, remote)
		},
	}), nil
}

// CreateItem appends an item optimistically under a pending id and creates it
// remotely. If the list is itself pending, the remote call waits for it.
func (c *Controller) CreateItem(ctx context.Context, listID model.ID, body string) (model.ID, *syncer.Mutation, error) {
	listID = c.canonical(listID)
	if _, err := c.repo.FindList(listID); err != nil {
		return "", nil, err
	}

	pending := c.repo.NewPendingID()
	var created model.ID
	m := c.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpCreateItem,
		Target: pending,
		Apply: func() {
			item := model.TaskItem{ID: pending, Body: body, Status: model.StatusPending}
			c.ignoreMissing("add item", c.repo.AddItem(listID, item))
		},
		Call: func(ctx context.Context) error {
			remoteList, err := c.creations.RemoteID(ctx, listID)
			if err != nil {
				return err
			}
			it, err := c.gw.CreateItem(ctx, remoteList, body)
			if err != nil {
				return err
			}
			created = it.ID
			return nil
		},
		OnConfirm: func() {
			c.reconcile(pending, created)
		},
	})
	c.creations.Track(pending, m)
	return pending, m, nil
}

// ToggleStatus flips an item between pending and completed.
func (c *Controller) ToggleStatus(ctx context.Context, itemID model.ID) (*syncer.Mutation, error) {
	if itemID.IsPlaceholder() {
		return nil, model.NewValidationError("item", "placeholder cannot be changed")
	}
	itemID = c.canonical(itemID)
	it, _, err := c.repo.FindItem(itemID)
	if err != nil {
		return nil, err
	}
	next := it.Status.Toggle()

	return c.coord.Run(ctx, syncer.Request{
		Op:     syncer.OpUpdateItemStatus,
		Target: itemID,
		Apply: func() {
			c.ignoreMissing("toggle status", c.repo.UpdateItem(itemID, repository.Patch{Status: &next}))
		},
		Call: func(ctx context.Context) error {
			remote, err := c.creations.RemoteID(ctx, itemID)
			if err != nil {
				return err
			}
			return c.gw.UpdateItemStatus(ctx, remote, next)
		},
	}), nil
}

// SelectList makes id the active list. It is a pure read: nothing is synced.
func (c *Controller) SelectList(id model.ID) error {
	id = c.canonical(id)
	if _, err := c.repo.FindList(id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
	return nil
}

// SelectIndex makes the list at position i the active list.
func (c *Controller) SelectIndex(i int) error {
	ids := c.repo.ListIDs()
	if i < 0 || i >= len(ids) {
		return fmt.Errorf("list index %d: %w", i, model.ErrNotFound)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ids[i]
	return nil
}

// Selected returns the active list. Without a valid selection the first list
// is active.
func (c *Controller) Selected() (model.TaskList, error) {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()

	if id != "" {
		if l, err := c.repo.FindList(c.canonical(id)); err == nil {
			return l, nil
		}
	}
	ids := c.repo.ListIDs()
	if len(ids) == 0 {
		return model.TaskList{}, fmt.Errorf("no lists: %w", model.ErrNotFound)
	}
	return c.repo.FindList(ids[0])
}

// SelectedIndex returns the position of the active list.
func (c *Controller) SelectedIndex() int {
	l, err := c.Selected()
	if err != nil {
		return -1
	}
	return c.repo.IndexOf(l.ID)
}

// Reset forgets the selection and any open dialog.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
	c.confirm = nil
}

// reconcile swaps a confirmed pending id for its remote id everywhere.
// A pending entity deleted locally in the meantime is left alone: its
// delete call waits for the creation and removes it remotely.
func (c *Controller) reconcile(pending, remote model.ID) {
	if err := c.repo.ReplaceID(pending, remote); err != nil {
		c.log.Debug("reconcile skipped", "pending", pending, "remote", remote, "err", err)
	}
	c.creations.Resolve(pending, remote)
	c.arb.Rekey(pending, remote)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == pending {
		c.selected = remote
	}
	if c.confirm != nil && c.confirm.ID == pending {
		c.confirm.ID = remote
	}
}

// canonical maps a reconciled pending id to its remote id.
func (c *Controller) canonical(id model.ID) model.ID {
	if id.IsPending() {
		if remote, ok := c.creations.Lookup(id); ok {
			return remote
		}
	}
	return id
}

// neighbor picks the list to select after the one at idx was removed.
// Called with c.mu held.
func (c *Controller) neighbor(idx int) model.ID {
	ids := c.repo.ListIDs()
	if len(ids) == 0 {
		return ""
	}
	if idx >= len(ids) {
		idx = len(ids) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return ids[idx]
}

// ignoreMissing swallows NotFound from a local apply whose target vanished.
func (c *Controller) ignoreMissing(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		c.log.Debug("local target missing", "op", op, "err", err)
		return
	}
	c.log.Warn("local apply failed", "op", op, "err", err)
}
