package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CRAFTHIRE_CONFIG", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.StoreDriver != StoreMemory {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" || cfg.JWTSecret == cfg.JWTRefreshSecret {
		t.Fatalf("expected distinct development secrets")
	}
	if cfg.JWTAccessTTL != 24*time.Hour {
		t.Fatalf("unexpected access ttl %v", cfg.JWTAccessTTL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CRAFTHIRE_CONFIG", "")
	t.Setenv("SERVER_PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for SERVER_PORT")
	}

	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for STORE_DRIVER")
	}
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("CRAFTHIRE_CONFIG", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing JWT_SECRET to fail in production")
	}
}

func TestYAMLFileBelowEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crafthire.yaml")
	body := "SERVER_PORT: \"9090\"\nlog_level: debug\nSTORE_DRIVER: memory\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("CRAFTHIRE_CONFIG", path)
	t.Setenv("SERVER_PORT", "7070")
	// unset so the file value applies; restored by t.Setenv cleanup
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("STORE_DRIVER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 7070 {
		t.Fatalf("expected env to win, got port %d", cfg.ServerPort)
	}
	if cfg.LogLevel != "debug" || cfg.StoreDriver != StoreMemory {
		t.Fatalf("expected file values, got level=%q driver=%q", cfg.LogLevel, cfg.StoreDriver)
	}
}
