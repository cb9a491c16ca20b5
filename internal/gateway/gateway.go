// Package gateway defines the backend-agnostic contract of the remote task store.
package gateway

import (
	"context"

	"todosync/internal/model"
)

// Gateway defines the request/response operations of the remote store.
// All store access goes through this interface.
// The core never imports a backend SDK directly.
//
// Every call resolves or fails independently; nothing is batched.
// Failures are *model.RemoteError or *model.AuthError.
type Gateway interface {
	// LoadAllLists returns every list with its items, lists in creation
	// order and items in position order.
	LoadAllLists(ctx context.Context) ([]model.TaskList, error)

	// CreateList creates an empty list and returns it with its remote id.
	CreateList(ctx context.Context, name, color string) (model.TaskList, error)

	// UpdateList changes the name and color of a list.
	UpdateList(ctx context.Context, listID model.ID, name, color string) error

	// DeleteList deletes a list and its items.
	DeleteList(ctx context.Context, listID model.ID) error

	// CreateItem appends a pending item to a list.
	CreateItem(ctx context.Context, listID model.ID, body string) (model.TaskItem, error)

	// UpdateItemBody replaces the body of an item.
	UpdateItemBody(ctx context.Context, itemID model.ID, body string) error

	// UpdateItemStatus sets the completion state of an item.
	UpdateItemStatus(ctx context.Context, itemID model.ID, status model.Status) error

	// DeleteItem deletes an item.
	DeleteItem(ctx context.Context, itemID model.ID) error

	// Authenticate exchanges credentials for a session.
	// Fails with *model.AuthError when the credentials are rejected.
	Authenticate(ctx context.Context, email, password string) (model.Session, error)
}

// Registrar is implemented by backends that can create accounts.
type Registrar interface {
	Register(ctx context.Context, email, password string) (model.Session, error)
}

// Binder is implemented by backends whose calls are scoped to a signed-in session.
type Binder interface {
	// Bind verifies sess and returns a Gateway acting on behalf of its user.
	Bind(ctx context.Context, sess model.Session) (Gateway, error)
}

// Closer is implemented by backends holding connections.
type Closer interface {
	Close() error
}

// Revoker is implemented by backends that can invalidate a session remotely.
type Revoker interface {
	Revoke(ctx context.Context, sess model.Session) error
}
