// Package backend opens the remote store selected in the configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"todosync/internal/backend/googletasks"
	"todosync/internal/backend/pgstore"
	"todosync/internal/backend/sqlitestore"
	"todosync/internal/config"
	"todosync/internal/gateway"
	"todosync/internal/model"
)

// accountStore is implemented by the SQL backends.
type accountStore interface {
	gateway.Gateway
	gateway.Registrar
	gateway.Binder
	gateway.Revoker
	gateway.Closer
}

// OpenAccounts opens the store for sign-in, sign-up and sign-out.
// The Google backend has no accounts of its own.
func OpenAccounts(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	switch cfg.Backend {
	case config.BackendGoogle:
		return nil, &model.AuthError{Message: "the google backend signs in with OAuth (run: todosync login)"}
	default:
		return openStore(ctx, cfg)
	}
}

// OpenSession opens the store for the saved credentials: token.json for
// Google, session.json for the SQL backends.
func OpenSession(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
	if cfg.Backend == config.BackendGoogle {
		if !cfg.HasOAuthClient() {
			return nil, &model.AuthError{Message: fmt.Sprintf("%s not found in %s", config.OAuthClientFile, cfg.Dir)}
		}
		if !cfg.HasToken() {
			return nil, &model.AuthError{Message: "not logged in (run: todosync login)"}
		}
		c, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	sess, err := cfg.LoadSession()
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bound, err := store.Bind(ctx, sess)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &session{Gateway: bound, root: store}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (accountStore, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	case config.BackendPostgres:
		s, err := pgstore.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	default:
		return nil, errors.New("unknown backend: " + cfg.Backend)
	}
}

// session is a bound store that closes the underlying connection.
type session struct {
	gateway.Gateway
	root gateway.Closer
}

func (s *session) Close() error { return s.root.Close() }
