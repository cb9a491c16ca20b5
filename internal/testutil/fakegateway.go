// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"todosync/internal/model"
)

// FakeGateway is an in-memory implementation of gateway.Gateway for testing.
type FakeGateway struct {
	mu     sync.Mutex
	lists  []model.TaskList
	users  map[string]string // email -> password
	nextID int
	calls  []string
	gate   chan struct{}

	// Error injection for testing
	LoadAllListsErr     error
	CreateListErr       error
	UpdateListErr       error
	DeleteListErr       error
	CreateItemErr       error
	UpdateItemBodyErr   error
	UpdateItemStatusErr error
	DeleteItemErr       error
}

// NewFakeGateway creates a FakeGateway with no lists.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{users: make(map[string]string)}
}

// AddList adds a list to the fake store.
func (f *FakeGateway) AddList(id, name, color string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, model.TaskList{ID: model.ID(id), Name: name, Color: color})
}

// AddItem adds an item to a list.
func (f *FakeGateway) AddItem(listID, itemID, body string, status model.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.lists {
		if f.lists[i].ID == model.ID(listID) {
			f.lists[i].Items = append(f.lists[i].Items, model.TaskItem{ID: model.ID(itemID), Body: body, Status: status})
		}
	}
}

// AddUser registers credentials accepted by Authenticate.
func (f *FakeGateway) AddUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// Hold makes every subsequent call block until the returned release func is called.
func (f *FakeGateway) Hold() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the operations received so far, in order.
func (f *FakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Snapshot returns a copy of the stored lists.
func (f *FakeGateway) Snapshot() []model.TaskList {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TaskList, len(f.lists))
	for i, l := range f.lists {
		out[i] = l.Clone()
	}
	return out
}

// enter records the call and waits at the gate.
func (f *FakeGateway) enter(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate := f.gate
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FakeGateway) newID(prefix string) model.ID {
	f.nextID++
	return model.ID(fmt.Sprintf("%s-%d", prefix, f.nextID))
}

func (f *FakeGateway) locateItem(id model.ID) (int, int, bool) {
	for li := range f.lists {
		for ii := range f.lists[li].Items {
			if f.lists[li].Items[ii].ID == id {
				return li, ii, true
			}
		}
	}
	return -1, -1, false
}

func (f *FakeGateway) locateList(id model.ID) (int, bool) {
	for i := range f.lists {
		if f.lists[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// LoadAllLists implements gateway.Gateway.
func (f *FakeGateway) LoadAllLists(ctx context.Context) ([]model.TaskList, error) {
	if err := f.enter(ctx, "LoadAllLists"); err != nil {
		return nil, err
	}
	if f.LoadAllListsErr != nil {
		return nil, f.LoadAllListsErr
	}
	return f.Snapshot(), nil
}

// CreateList implements gateway.Gateway.
func (f *FakeGateway) CreateList(ctx context.Context, name, color string) (model.TaskList, error) {
	if err := f.enter(ctx, "CreateList"); err != nil {
		return model.TaskList{}, err
	}
	if f.CreateListErr != nil {
		return model.TaskList{}, f.CreateListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l := model.TaskList{ID: f.newID("list"), Name: name, Color: color}
	f.lists = append(f.lists, l)
	return l, nil
}

// UpdateList implements gateway.Gateway.
func (f *FakeGateway) UpdateList(ctx context.Context, listID model.ID, name, color string) error {
	if err := f.enter(ctx, "UpdateList"); err != nil {
		return err
	}
	if f.UpdateListErr != nil {
		return f.UpdateListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.locateList(listID)
	if !ok {
		return model.ErrNotFound
	}
	f.lists[i].Name = name
	f.lists[i].Color = color
	return nil
}

// DeleteList implements gateway.Gateway.
func (f *FakeGateway) DeleteList(ctx context.Context, listID model.ID) error {
	if err := f.enter(ctx, "DeleteList"); err != nil {
		return err
	}
	if f.DeleteListErr != nil {
		return f.DeleteListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.locateList(listID)
	if !ok {
		return model.ErrNotFound
	}
	f.lists = append(f.lists[:i], f.lists[i+1:]...)
	return nil
}

// CreateItem implements gateway.Gateway.
func (f *FakeGateway) CreateItem(ctx context.Context, listID model.ID, body string) (model.TaskItem, error) {
	if err := f.enter(ctx, "CreateItem"); err != nil {
		return model.TaskItem{}, err
	}
	if f.CreateItemErr != nil {
		return model.TaskItem{}, f.CreateItemErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.locateList(listID)
	if !ok {
		return model.TaskItem{}, model.ErrNotFound
	}
	item := model.TaskItem{ID: f.newID("item"), Body: body, Status: model.StatusPending}
	f.lists[i].Items = append(f.lists[i].Items, item)
	return item, nil
}

// UpdateItemBody implements gateway.Gateway.
func (f *FakeGateway) UpdateItemBody(ctx context.Context, itemID model.ID, body string) error {
	if err := f.enter(ctx, "UpdateItemBody"); err != nil {
		return err
	}
	if f.UpdateItemBodyErr != nil {
		return f.UpdateItemBodyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	li, ii, ok := f.locateItem(itemID)
	if !ok {
		return model.ErrNotFound
	}
	f.lists[li].Items[ii].Body = body
	return nil
}

// UpdateItemStatus implements gateway.Gateway.
func (f *FakeGateway) UpdateItemStatus(ctx context.Context, itemID model.ID, status model.Status) error {
	if err := f.enter(ctx, "UpdateItemStatus"); err != nil {
		return err
	}
	if f.UpdateItemStatusErr != nil {
		return f.UpdateItemStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	li, ii, ok := f.locateItem(itemID)
	if !ok {
		return model.ErrNotFound
	}
	f.lists[li].Items[ii].Status = status
	return nil
}

// DeleteItem implements gateway.Gateway.
func (f *FakeGateway) DeleteItem(ctx context.Context, itemID model.ID) error {
	if err := f.enter(ctx, "DeleteItem"); err != nil {
		return err
	}
	if f.DeleteItemErr != nil {
		return f.DeleteItemErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	li, ii, ok := f.locateItem(itemID)
	if !ok {
		return model.ErrNotFound
	}
	items := f.lists[li].Items
	f.lists[li].Items = append(items[:ii], items[ii+1:]...)
	return nil
}

// Authenticate implements gateway.Gateway.
func (f *FakeGateway) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	if err := f.enter(ctx, "Authenticate"); err != nil {
		return model.Session{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[email]; !ok || pw != password {
		return model.Session{}, &model.AuthError{Message: "invalid email or password"}
	}
	return model.Session{UserID: "user-" + email, Email: email, Token: "token-" + email}, nil
}
