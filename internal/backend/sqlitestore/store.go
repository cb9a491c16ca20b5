// Package sqlitestore implements gateway.Gateway on a local SQLite database
// with email/password accounts.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"todosync/internal/backend/credentials"
	"todosync/internal/gateway"
	"todosync/internal/model"
)

var (
	errInvalidCredentials = &model.AuthError{Message: "invalid email or password"}
	errNotSignedIn        = &model.AuthError{Message: "not signed in (run: todosync signin)"}
	errSessionExpired     = &model.AuthError{Message: "session expired (run: todosync signin)"}
	errEmailTaken         = &model.AuthError{Message: "email already registered"}
)

// Store is a SQLite-backed task store. An unbound Store only handles
// accounts; Bind returns a Store scoped to one user.
type Store struct {
	db     *sql.DB
	userID string
	owner  bool
	log    *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	db.ExecContext(ctx, "PRAGMA synchronous=NORMAL")

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, owner: true, log: slog.Default()}, nil
}

// Close closes the database. Bound stores share the connection and do not close it.
func (s *Store) Close() error {
	if !s.owner {
		return nil
	}
	return s.db.Close()
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, email, password string) (model.Session, error) {
	email = credentials.NormalizeEmail(email)
	hash, err := credentials.HashPassword(password)
	if err != nil {
		return model.Session{}, err
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, email).Scan(&exists)
	if err == nil {
		return model.Session{}, errEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, fmt.Errorf("check email: %w", err)
	}

	userID := newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		userID, email, hash, time.Now().UTC(),
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("insert user: %w", err)
	}
	s.log.Debug("user registered", "user", userID)
	return s.newSession(ctx, userID, email)
}

// Authenticate checks email and password and opens a session.
func (s *Store) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	email = credentials.NormalizeEmail(email)

	var userID, hash string
	err := s.db.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email = ?`, email).Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, errInvalidCredentials
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := credentials.VerifyPassword(hash, password)
	if err != nil {
		return model.Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return model.Session{}, errInvalidCredentials
	}
	return s.newSession(ctx, userID, email)
}

func (s *Store) newSession(ctx context.Context, userID, email string) (model.Session, error) {
	token, err := credentials.NewToken()
	if err != nil {
		return model.Session{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at) VALUES (?, ?, ?)`,
		credentials.HashToken(token), userID, time.Now().UTC(),
	)
	if err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return model.Session{UserID: userID, Email: email, Token: token}, nil
}

// Bind verifies sess and returns a store acting for its user.
func (s *Store) Bind(ctx context.Context, sess model.Session) (gateway.Gateway, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE token_hash = ?`, credentials.HashToken(sess.Token),
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && userID != sess.UserID) {
		return nil, errSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &Store{db: s.db, userID: userID, log: s.log}, nil
}

// Revoke deletes the session of sess.
func (s *Store) Revoke(ctx context.Context, sess model.Session) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, credentials.HashToken(sess.Token))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LoadAllLists returns the user's lists in creation order with their items.
func (s *Store) LoadAllLists(ctx context.Context) ([]model.TaskList, error) {
	if s.userID == "" {
		return nil, errNotSignedIn
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color FROM lists WHERE user_id = ? ORDER BY seq`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	var lists []model.TaskList
	index := make(map[model.ID]int)
	for rows.Next() {
		var l model.TaskList
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list: %w", err)
		}
		index[l.ID] = len(lists)
		lists = append(lists, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, list_id, body, status FROM items WHERE user_id = ? ORDER BY seq`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it model.TaskItem
		var listID model.ID
		if err := rows.Scan(&it.ID, &listID, &it.Body, &it.Status); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if i, ok := index[listID]; ok {
			lists[i].Items = append(lists[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return lists, nil
}

// CreateList inserts an empty list.
func (s *Store) CreateList(ctx context.Context, name, color string) (model.TaskList, error) {
	if s.userID == "" {
		return model.TaskList{}, errNotSignedIn
	}
	l := model.TaskList{ID: model.ID(newID()), Name: name, Color: color}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lists (id, user_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(l.ID), s.userID, l.Name, l.Color, time.Now().UTC(),
	)
	if err != nil {
		return model.TaskList{}, fmt.Errorf("insert list: %w", err)
	}
	return l, nil
}

// UpdateList changes name and color of a list.
func (s *Store) UpdateList(ctx context.Context, listID model.ID, name, color string) error {
	return s.execOne(ctx, "list", listID,
		`UPDATE lists SET name = ?, color = ? WHERE id = ? AND user_id = ?`,
		name, color, string(listID), s.userID)
}

// DeleteList deletes a list and, by cascade, its items.
func (s *Store) DeleteList(ctx context.Context, listID model.ID) error {
	return s.execOne(ctx, "list", listID,
		`DELETE FROM lists WHERE id = ? AND user_id = ?`, string(listID), s.userID)
}

// CreateItem appends a pending item to a list of the user.
func (s *Store) CreateItem(ctx context.Context, listID model.ID, body string) (model.TaskItem, error) {
	it := model.TaskItem{ID: model.ID(newID()), Body: body, Status: model.StatusPending}
	err := s.execOne(ctx, "list", listID,
		`INSERT INTO items (id, list_id, user_id, body, status, created_at)
		 SELECT ?, id, user_id, ?, ?, ? FROM lists WHERE id = ? AND user_id = ?`,
		string(it.ID), it.Body, string(it.Status), time.Now().UTC(), string(listID), s.userID)
	if err != nil {
		return model.TaskItem{}, err
	}
	return it, nil
}

// UpdateItemBody replaces the body of an item.
func (s *Store) UpdateItemBody(ctx context.Context, itemID model.ID, body string) error {
	return s.execOne(ctx, "item", itemID,
		`UPDATE items SET body = ? WHERE id = ? AND user_id = ?`, body, string(itemID), s.userID)
}

// UpdateItemStatus sets the status of an item.
func (s *Store) UpdateItemStatus(ctx context.Context, itemID model.ID, status model.Status) error {
	if !status.Valid() {
		return model.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.execOne(ctx, "item", itemID,
		`UPDATE items SET status = ? WHERE id = ? AND user_id = ?`, string(status), string(itemID), s.userID)
}

// DeleteItem deletes an item.
func (s *Store) DeleteItem(ctx context.Context, itemID model.ID) error {
	return s.execOne(ctx, "item", itemID,
		`DELETE FROM items WHERE id = ? AND user_id = ?`, string(itemID), s.userID)
}

// execOne runs a statement expected to touch exactly one row of the user.
func (s *Store) execOne(ctx context.Context, kind string, id model.ID, query string, args ...any) error {
	if s.userID == "" {
		return errNotSignedIn
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
