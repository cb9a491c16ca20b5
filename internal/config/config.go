// Package config handles the XDG configuration directory, config.json and
// the credential files stored next to it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"todosync/internal/model"
)

const (
	// AppName is the application directory name.
	AppName = "todosync"

	// ConfigFile holds backend selection and connection settings.
	ConfigFile = "config.json"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// SessionFile is the stored SQL backend session filename.
	SessionFile = "session.json"

	// DefaultSQLiteFile is the database filename used when sqlite_path is unset.
	DefaultSQLiteFile = "todosync.db"
)

// Backend names.
const (
	BackendGoogle   = "google"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Environment overrides.
const (
	EnvBackend     = "TODOSYNC_BACKEND"
	EnvSQLitePath  = "TODOSYNC_SQLITE_PATH"
	EnvDatabaseURL = "TODOSYNC_DATABASE_URL"
)

// File is the on-disk shape of config.json.
type File struct {
	Backend     string `json:"backend,omitempty"`
	SQLitePath  string `json:"sqlite_path,omitempty"`
	PostgresURL string `json:"postgres_url,omitempty"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Backend selects the remote store: google, sqlite or postgres.
	Backend string

	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string

	// PostgresURL is the connection string of the postgres backend.
	PostgresURL string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config for configDir (default: XDG_CONFIG_HOME/todosync or
// $HOME/.config/todosync), reading config.json if present and applying
// environment overrides on top.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{Dir: dir, Backend: BackendGoogle}

	data, err := os.ReadFile(c.path(ConfigFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	default:
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
		c.apply(f)
	}

	c.apply(File{
		Backend:     os.Getenv(EnvBackend),
		SQLitePath:  os.Getenv(EnvSQLitePath),
		PostgresURL: os.Getenv(EnvDatabaseURL),
	})
	if c.SQLitePath == "" {
		c.SQLitePath = c.path(DefaultSQLiteFile)
	}
	return c, c.Validate()
}

func (c *Config) apply(f File) {
	if f.Backend != "" {
		c.Backend = strings.ToLower(strings.TrimSpace(f.Backend))
	}
	if f.SQLitePath != "" {
		c.SQLitePath = f.SQLitePath
	}
	if f.PostgresURL != "" {
		c.PostgresURL = f.PostgresURL
	}
}

// Validate checks the backend selection.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGoogle, BackendSQLite:
		return nil
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres backend needs postgres_url in %s or %s", ConfigFile, EnvDatabaseURL)
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendGoogle, BackendSQLite, BackendPostgres)
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) path(name string) string {
	return filepath.Join(c.Dir, name)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string { return c.path(OAuthClientFile) }

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string { return c.path(TokenFile) }

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string { return c.path(SessionFile) }

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// SaveSession writes sess to session.json with mode 0600.
func (c *Config) SaveSession(sess model.Session) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionPath(), data, 0600)
}

// LoadSession reads session.json. A missing file is an AuthError.
func (c *Config) LoadSession() (model.Session, error) {
	data, err := os.ReadFile(c.SessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return model.Session{}, &model.AuthError{Message: "not signed in (run: todosync signin)"}
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to read %s: %w", SessionFile, err)
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return model.Session{}, fmt.Errorf("invalid %s: %w", SessionFile, err)
	}
	if !sess.Valid() {
		return model.Session{}, &model.AuthError{Message: "session incomplete (run: todosync signin)"}
	}
	return sess, nil
}

// HasSession checks if the session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the session file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}
