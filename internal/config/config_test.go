package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":8080" || cfg.Database.Driver != "mongo" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWT.Expiration != time.Hour || cfg.Editor.SessionTTL != 30*time.Minute {
		t.Errorf("durations not decoded: jwt %v ttl %v", cfg.JWT.Expiration, cfg.Editor.SessionTTL)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  driver: sqlite
  dsn: ":memory:"
jwt:
  secret: from-file
  expiration: 90m
editor:
  max_sessions: 4
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != ":memory:" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("env did not override file: %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 90*time.Minute || cfg.Editor.MaxSessions != 4 {
		t.Errorf("jwt %v, max sessions %d", cfg.JWT.Expiration, cfg.Editor.MaxSessions)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}
