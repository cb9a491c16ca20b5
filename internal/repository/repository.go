// Package repository holds the in-memory canonical view of lists and items.
//
// Every mutation is synchronous and visible to the next read. Reads hand out
// copies, so callers can only change state through the mutation primitives.
package repository

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"todosync/internal/model"
)

// Patch describes a partial item update. Nil fields are left unchanged.
type Patch struct {
	Body   *string
	Status *model.Status
}

// ListPatch describes a partial list update. Nil fields are left unchanged.
type ListPatch struct {
	Name  *string
	Color *string
}

// Repository stores lists in insertion order with id indexes.
// The placeholder item is maintained here: a list holds it iff it has no real items.
type Repository struct {
	mu        sync.RWMutex
	order     []model.ID
	lists     map[model.ID]*model.TaskList
	itemOwner map[model.ID]model.ID // item id -> list id

	nextLocal atomic.Int64
}

// New creates an empty repository.
func New() *Repository {
	r := &Repository{
		lists:     make(map[model.ID]*model.TaskList),
		itemOwner: make(map[model.ID]model.ID),
	}
	r.nextLocal.Store(-1)
	return r
}

// NewPendingID allocates a transient id for an entity awaiting creation.
// Ids count down from -2; -1 is the placeholder.
func (r *Repository) NewPendingID() model.ID {
	return model.ID(strconv.FormatInt(r.nextLocal.Add(-1), 10))
}

// AddList appends a list. An existing list with the same id is replaced in place.
func (r *Repository) AddList(list model.TaskList) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addListLocked(list)
}

func (r *Repository) addListLocked(list model.TaskList) {
	l := normalize(list)
	if old, ok := r.lists[l.ID]; ok {
		r.forgetItemsLocked(old)
	} else {
		r.order = append(r.order, l.ID)
	}
	r.lists[l.ID] = &l
	for _, it := range l.Items {
		if !it.IsPlaceholder() {
			r.itemOwner[it.ID] = l.ID
		}
	}
}

// RemoveList deletes a list and its items.
func (r *Repository) RemoveList(id model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[id]
	if !ok {
		return fmt.Errorf("list %s: %w", id, model.ErrNotFound)
	}
	r.forgetItemsLocked(l)
	delete(r.lists, id)
	r.order = slices.DeleteFunc(r.order, func(x model.ID) bool { return x == id })
	return nil
}

// ReplaceLists swaps the whole content for lists, keeping their order.
func (r *Repository) ReplaceLists(lists []model.TaskList) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = nil
	r.lists = make(map[model.ID]*model.TaskList, len(lists))
	r.itemOwner = make(map[model.ID]model.ID)
	for _, l := range lists {
		r.addListLocked(l)
	}
}

// Clear removes everything.
func (r *Repository) Clear() {
	r.ReplaceLists(nil)
}

// UpdateList applies patch to a list.
func (r *Repository) UpdateList(id model.ID, patch ListPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[id]
	if !ok {
		return fmt.Errorf("list %s: %w", id, model.ErrNotFound)
	}
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Color != nil {
		l.Color = *patch.Color
	}
	return nil
}

// AddItem appends an item to a list. Adding a real item drops the placeholder.
func (r *Repository) AddItem(listID model.ID, item model.TaskItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lists[listID]
	if !ok {
		return fmt.Errorf("list %s: %w", listID, model.ErrNotFound)
	}
	if item.IsPlaceholder() {
		if len(l.Items) == 0 {
			l.Items = append(l.Items, model.Placeholder())
		}
		return nil
	}
	if item.Status == "" {
		item.Status = model.StatusPending
	}
	l.Items = slices.DeleteFunc(l.Items, func(it model.TaskItem) bool { return it.IsPlaceholder() })
	l.Items = append(l.Items, item)
	r.itemOwner[item.ID] = listID
	return nil
}

// RemoveItem deletes an item. Removing the last real item restores the placeholder.
func (r *Repository) RemoveItem(itemID model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, idx, err := r.locateLocked(itemID)
	if err != nil {
		return err
	}
	l.Items = slices.Delete(l.Items, idx, idx+1)
	delete(r.itemOwner, itemID)
	if len(l.Items) == 0 {
		l.Items = append(l.Items, model.Placeholder())
	}
	return nil
}

// UpdateItem applies patch to an item.
func (r *Repository) UpdateItem(itemID model.ID, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, idx, err := r.locateLocked(itemID)
	if err != nil {
		return err
	}
	if patch.Body != nil {
		l.Items[idx].Body = *patch.Body
	}
	if patch.Status != nil {
		l.Items[idx].Status = *patch.Status
	}
	return nil
}

// ReplaceID renames a list or item, typically a pending id to its remote id.
func (r *Repository) ReplaceID(oldID, newID model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.lists[oldID]; ok {
		l.ID = newID
		delete(r.lists, oldID)
		r.lists[newID] = l
		for i, id := range r.order {
			if id == oldID {
				r.order[i] = newID
			}
		}
		for _, it := range l.Items {
			if !it.IsPlaceholder() {
				r.itemOwner[it.ID] = newID
			}
		}
		return nil
	}

	l, idx, err := r.locateLocked(oldID)
	if err != nil {
		return err
	}
	l.Items[idx].ID = newID
	delete(r.itemOwner, oldID)
	r.itemOwner[newID] = l.ID
	return nil
}

// FindList returns a copy of a list.
func (r *Repository) FindList(id model.ID) (model.TaskList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lists[id]
	if !ok {
		return model.TaskList{}, fmt.Errorf("list %s: %w", id, model.ErrNotFound)
	}
	return l.Clone(), nil
}

// FindItem returns a copy of an item and the id of the list holding it.
func (r *Repository) FindItem(id model.ID) (model.TaskItem, model.ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, idx, err := r.locateLocked(id)
	if err != nil {
		return model.TaskItem{}, "", err
	}
	return l.Items[idx], l.ID, nil
}

// Lists returns copies of all lists in order.
func (r *Repository) Lists() []model.TaskList {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.TaskList, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.lists[id].Clone())
	}
	return out
}

// ListIDs returns the list ids in order.
func (r *Repository) ListIDs() []model.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of lists.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IndexOf returns the position of a list, or -1.
func (r *Repository) IndexOf(id model.ID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Index(r.order, id)
}

// RealItemCount returns the number of non-placeholder items in a list.
func (r *Repository) RealItemCount(listID model.ID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lists[listID]
	if !ok {
		return 0, fmt.Errorf("list %s: %w", listID, model.ErrNotFound)
	}
	n := 0
	for _, it := range l.Items {
		if !it.IsPlaceholder() {
			n++
		}
	}
	return n, nil
}

func (r *Repository) locateLocked(itemID model.ID) (*model.TaskList, int, error) {
	if itemID.IsPlaceholder() {
		return nil, -1, fmt.Errorf("item %s: %w", itemID, model.ErrNotFound)
	}
	listID, ok := r.itemOwner[itemID]
	if !ok {
		return nil, -1, fmt.Errorf("item %s: %w", itemID, model.ErrNotFound)
	}
	l := r.lists[listID]
	for i, it := range l.Items {
		if it.ID == itemID {
			return l, i, nil
		}
	}
	return nil, -1, fmt.Errorf("item %s: %w", itemID, model.ErrNotFound)
}

func (r *Repository) forgetItemsLocked(l *model.TaskList) {
	for _, it := range l.Items {
		if r.itemOwner[it.ID] == l.ID {
			delete(r.itemOwner, it.ID)
		}
	}
}

// normalize copies list and fixes the placeholder invariant.
func normalize(list model.TaskList) model.TaskList {
	l := list.Clone()
	if l.Color == "" {
		l.Color = model.DefaultColor
	}
	items := l.RealItems()
	if len(items) == 0 {
		l.Items = []model.TaskItem{model.Placeholder()}
		return l
	}
	for i := range items {
		if items[i].Status == "" {
			items[i].Status = model.StatusPending
		}
	}
	l.Items = items
	return l
}
