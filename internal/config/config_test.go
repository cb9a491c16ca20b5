package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"todosync/internal/config"
	"todosync/internal/model"
)

func clearEnv(t *testing.T) {
	t.Setenv(config.EnvBackend, "")
	t.Setenv(config.EnvSQLitePath, "")
	t.Setenv(config.EnvDatabaseURL, "")
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Backend != config.BackendGoogle {
		t.Errorf("expected %q, got %q", config.BackendGoogle, cfg.Backend)
	}
	if want := filepath.Join(dir, config.DefaultSQLiteFile); cfg.SQLitePath != want {
		t.Errorf("expected %q, got %q", want, cfg.SQLitePath)
	}
	if want := filepath.Join(dir, "token.json"); cfg.TokenPath() != want {
		t.Errorf("expected %q, got %q", want, cfg.TokenPath())
	}
}

func TestNew_FileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	data := `{"backend":"SQLite","sqlite_path":"/tmp/from-file.db"}`
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Backend != config.BackendSQLite || cfg.SQLitePath != "/tmp/from-file.db" {
		t.Errorf("unexpected config %+v", cfg)
	}

	t.Setenv(config.EnvBackend, "postgres")
	t.Setenv(config.EnvDatabaseURL, "postgres://localhost/todosync")
	cfg, err = config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Backend != config.BackendPostgres || cfg.PostgresURL != "postgres://localhost/todosync" {
		t.Errorf("expected env override, got %+v", cfg)
	}
}

func TestNew_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv(config.EnvBackend, "dropbox")
	if _, err := config.New(dir); err == nil {
		t.Error("expected error for unknown backend")
	}

	t.Setenv(config.EnvBackend, "postgres")
	if _, err := config.New(dir); err == nil {
		t.Error("expected error for postgres without url")
	}

	clearEnv(t)
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.New(dir); err == nil {
		t.Error("expected error for malformed config.json")
	}
}

func TestSession(t *testing.T) {
	clearEnv(t)
	cfg, err := config.New(filepath.Join(t.TempDir(), "nested"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.LoadSession(); !model.IsAuth(err) {
		t.Errorf("expected auth error without session, got %v", err)
	}

	sess := model.Session{UserID: "u1", Email: "ann@example.com", Token: "tok"}
	if err := cfg.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	info, err := os.Stat(cfg.SessionPath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	got, err := cfg.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got != sess {
		t.Errorf("expected %+v, got %+v", sess, got)
	}

	if err := cfg.RemoveSession(); err != nil {
		t.Fatal(err)
	}
	if cfg.HasSession() {
		t.Error("expected session removed")
	}
}
