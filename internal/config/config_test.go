package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, DriverSQLite)
	}
	if cfg.Store.DefaultListLimit != 100 {
		t.Errorf("DefaultListLimit = %d, want 100", cfg.Store.DefaultListLimit)
	}
	if cfg.App.Port != "8000" {
		t.Errorf("App.Port = %q, want %q", cfg.App.Port, "8000")
	}
	if len(cfg.App.CORSOrigins) != 1 || cfg.App.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.App.CORSOrigins)
	}
}

func TestLoadPortPrefersPORT(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_PORT", "7070")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Errorf("App.Port = %q, want 9090", cfg.App.Port)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestLoadPostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error when POSTGRES_DSN is missing")
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " http://a.test , ,http://b.test")
	got := getEnvAsList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("getEnvAsList = %v", got)
	}
}

func TestDurations(t *testing.T) {
	if got := (AppConfig{RequestTimeoutSeconds: 5}).RequestTimeout(); got != 5*time.Second {
		t.Errorf("RequestTimeout = %v", got)
	}
	if got := (AppConfig{}).RequestTimeout(); got != 0 {
		t.Errorf("RequestTimeout with zero seconds = %v, want 0", got)
	}
	if got := (RedisConfig{CacheTTLSeconds: 60}).CacheTTL(); got != time.Minute {
		t.Errorf("CacheTTL = %v", got)
	}
}
