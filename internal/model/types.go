// Package model defines the task list entities shared by every layer.
package model

import (
	"strconv"
	"strings"
)

// ID identifies a list or an item.
// Remote ids are opaque strings. Negative decimal ids are allocated locally.
type ID string

// PlaceholderID marks the stand-in item of an empty list.
const PlaceholderID ID = "-1"

// DefaultColor is the color given to lists created without one.
const DefaultColor = "#4fc33f"

// IsPlaceholder reports whether id is the placeholder item id.
func (id ID) IsPlaceholder() bool { return id == PlaceholderID }

// IsLocal reports whether id was allocated on this client (placeholder or pending).
func (id ID) IsLocal() bool {
	if !strings.HasPrefix(string(id), "-") {
		return false
	}
	_, err := strconv.Atoi(string(id))
	return err == nil
}

// IsPending reports whether id is a transient id of an entity awaiting creation.
func (id ID) IsPending() bool { return id.IsLocal() && !id.IsPlaceholder() }

func (id ID) String() string { return string(id) }

// Status is the completion state of an item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// TaskItem represents a single task item.
type TaskItem struct {
	ID     ID
	Body   string
	Status Status
}

// IsPlaceholder reports whether the item is the empty-list stand-in.
func (i TaskItem) IsPlaceholder() bool { return i.ID.IsPlaceholder() }

// Placeholder returns a fresh placeholder item.
func Placeholder() TaskItem {
	return TaskItem{ID: PlaceholderID, Status: StatusPending}
}

// TaskList represents a task list.
type TaskList struct {
	ID    ID
	Name  string
	Color string
	Items []TaskItem
}

// Clone returns a deep copy of the list.
func (l TaskList) Clone() TaskList {
	c := l
	if l.Items != nil {
		c.Items = make([]TaskItem, len(l.Items))
		copy(c.Items, l.Items)
	}
	return c
}

// RealItems returns the items of the list without the placeholder.
func (l TaskList) RealItems() []TaskItem {
	var out []TaskItem
	for _, it := range l.Items {
		if !it.IsPlaceholder() {
			out = append(out, it)
		}
	}
	return out
}

// Session is the identity returned by authentication.
// The core passes it around without looking inside.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// Valid reports whether the session carries a user and a token.
func (s Session) Valid() bool {
	return s.UserID != "" && s.Token != ""
}
