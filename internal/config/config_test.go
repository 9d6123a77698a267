package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "dev" {
		t.Fatalf("environment %q", cfg.Environment)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr %q", cfg.ListenAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("db driver %q", cfg.DBDriver)
	}
	if cfg.GreetingDelay != 500*time.Millisecond {
		t.Fatalf("greeting delay %v", cfg.GreetingDelay)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("request timeout %v", cfg.RequestTimeout)
	}
}

func TestLoadMergesSettingsAndEnvFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config/setting.ini"), "environment=prod\nlisten_addr=:9000\nlog_level=debug\n")
	writeFile(t, filepath.Join(root, "config/prod/intake.ini"), "# prod overrides\nlisten_addr=:9999\ngreeting_delay=2s\n")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "prod" {
		t.Fatalf("environment %q", cfg.Environment)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("env file must win: %q", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("settings default lost: %q", cfg.LogLevel)
	}
	if cfg.GreetingDelay != 2*time.Second {
		t.Fatalf("greeting delay %v", cfg.GreetingDelay)
	}
}

func TestEnvVariableWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config/setting.ini"), "listen_addr=:9000\n")
	t.Setenv("STACKHIRE_LISTEN_ADDR", ":7777")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Fatalf("env override lost: %q", cfg.ListenAddr)
	}
}

func TestGreetingDelayAcceptsBareSeconds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config/setting.ini"), "greeting_delay=1.5\n")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GreetingDelay != 1500*time.Millisecond {
		t.Fatalf("greeting delay %v", cfg.GreetingDelay)
	}
}

func TestPostgresRequiresDSN(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config/setting.ini"), "db_driver=postgres\n")

	if _, err := Load(root); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
}

func TestUnsupportedDriverRejected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config/setting.ini"), "db_driver=oracle\n")

	if _, err := Load(root); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
