// Package pgstore implements gateway.Gateway on PostgreSQL with
// email/password accounts.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

// uniqueViolation is the PostgreSQL error code for a duplicate key.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed task store. An unbound Store only handles
// accounts; Bind returns a Store scoped to one user.
type Store struct {
	pool   *pgxpool.Pool
	userID string
	owner  bool
}

// Open connects to url and creates the tables if needed.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	s := &Store{pool: pool, owner: true}
	if err := s.EnsureTables(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// New wraps an existing pool. The caller keeps ownership of the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureTables creates the tables if they don't exist.
func (s *Store) EnsureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token_hash TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS lists (
			seq        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			color      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			seq        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			list_id    TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			body       TEXT NOT NULL,
			status     TEXT NOT NULL CHECK (status IN ('pending', 'completed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lists_user ON lists(user_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_items_user ON items(user_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the pool if this Store opened it.
func (s *Store) Close() error {
	if s.owner {
		s.pool.Close()
	}
	return nil
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, email, password string) (model.Session, error) {
	email = credentials.NormalizeEmail(email)
	hash, err := credentials.HashPassword(password)
	if err != nil {
		return model.Session{}, err
	}

	userID := newID()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		userID, email, hash, now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Session{}, errEmailTaken
		}
		return model.Session{}, fmt.Errorf("insert user: %w", err)
	}
	return s.newSession(ctx, userID, email)
}

// Authenticate checks email and password and opens a session.
func (s *Store) Authenticate(ctx context.Context, email, password string) (model.Session, error) {
	email = credentials.NormalizeEmail(email)

	var userID, hash string
	err := s.pool.QueryRow(ctx, `SELECT id, password_hash FROM users WHERE email = $1`, email).Scan(&userID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at) VALUES ($1, $2, $3)`,
		credentials.HashToken(token), userID, now())
	if err != nil {
		return model.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return model.Session{UserID: userID, Email: email, Token: token}, nil
}

// Bind verifies sess and returns a store acting for its user.
func (s *Store) Bind(ctx context.Context, sess model.Session) (gateway.Gateway, error) {
	var userID string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id FROM sessions WHERE token_hash = $1`, credentials.HashToken(sess.Token),
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && userID != sess.UserID) {
		return nil, errSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &Store{pool: s.pool, userID: userID}, nil
}

// Revoke deletes the session of sess.
func (s *Store) Revoke(ctx context.Context, sess model.Session) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, credentials.HashToken(sess.Token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LoadAllLists returns the user's lists in creation order with their items.
func (s *Store) LoadAllLists(ctx context.Context) ([]model.TaskList, error) {
	if s.userID == "" {
		return nil, errNotSignedIn
	}

	rows, err := s.pool.Query(ctx, `SELECT id, name, color FROM lists WHERE user_id = $1 ORDER BY seq`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	var lists []model.TaskList
	index := make(map[string]int)
	for rows.Next() {
		var id, name, color string
		if err := rows.Scan(&id, &name, &color); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan list: %w", err)
		}
		index[id] = len(lists)
		lists = append(lists, model.TaskList{ID: model.ID(id), Name: name, Color: color})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT id, list_id, body, status FROM items WHERE user_id = $1 ORDER BY seq`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, listID, body, status string
		if err := rows.Scan(&id, &listID, &body, &status); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if i, ok := index[listID]; ok {
			lists[i].Items = append(lists[i].Items, model.TaskItem{ID: model.ID(id), Body: body, Status: model.Status(status)})
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
	id := newID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lists (id, user_id, name, color, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, s.userID, name, color, now())
	if err != nil {
		return model.TaskList{}, fmt.Errorf("insert list: %w", err)
	}
	return model.TaskList{ID: model.ID(id), Name: name, Color: color}, nil
}

// UpdateList changes name and color of a list.
func (s *Store) UpdateList(ctx context.Context, listID model.ID, name, color string) error {
	return s.execOne(ctx, "list", listID,
		`UPDATE lists SET name = $1, color = $2 WHERE id = $3 AND user_id = $4`,
		name, color, string(listID), s.userID)
}

// DeleteList deletes a list and, by cascade, its items.
func (s *Store) DeleteList(ctx context.Context, listID model.ID) error {
	return s.execOne(ctx, "list", listID,
		`DELETE FROM lists WHERE id = $1 AND user_id = $2`, string(listID), s.userID)
}

// CreateItem appends a pending item to a list of the user.
func (s *Store) CreateItem(ctx context.Context, listID model.ID, body string) (model.TaskItem, error) {
	id := newID()
	err := s.execOne(ctx, "list", listID,
		`INSERT INTO items (id, list_id, user_id, body, status, created_at)
		 SELECT $1, id, user_id, $2, $3, $4 FROM lists WHERE id = $5 AND user_id = $6`,
		id, body, string(model.StatusPending), now(), string(listID), s.userID)
	if err != nil {
		return model.TaskItem{}, err
	}
	return model.TaskItem{ID: model.ID(id), Body: body, Status: model.StatusPending}, nil
}

// UpdateItemBody replaces the body of an item.
func (s *Store) UpdateItemBody(ctx context.Context, itemID model.ID, body string) error {
	return s.execOne(ctx, "item", itemID,
		`UPDATE items SET body = $1 WHERE id = $2 AND user_id = $3`, body, string(itemID), s.userID)
}

// UpdateItemStatus sets the status of an item.
func (s *Store) UpdateItemStatus(ctx context.Context, itemID model.ID, status model.Status) error {
	if !status.Valid() {
		return model.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.execOne(ctx, "item", itemID,
		`UPDATE items SET status = $1 WHERE id = $2 AND user_id = $3`, string(status), string(itemID), s.userID)
}

// DeleteItem deletes an item.
func (s *Store) DeleteItem(ctx context.Context, itemID model.ID) error {
	return s.execOne(ctx, "item", itemID,
		`DELETE FROM items WHERE id = $1 AND user_id = $2`, string(itemID), s.userID)
}

// execOne runs a statement expected to touch exactly one row of the user.
func (s *Store) execOne(ctx context.Context, kind string, id model.ID, query string, args ...any) error {
	if s.userID == "" {
		return errNotSignedIn
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func now() time.Time {
	return time.Now().Truncate(time.Microsecond)
}
