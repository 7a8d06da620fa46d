package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Port)
	}
	if cfg.Database.Driver != DriverMariaDB {
		t.Errorf("expected default driver %q, got %q", DriverMariaDB, cfg.Database.Driver)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("expected 24h session TTL, got %s", cfg.Session.TTL)
	}
	if cfg.Session.Secret == "" {
		t.Error("expected dev secret to be filled in")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != cfg.BaseURL {
		t.Errorf("expected CORS origins to default to base URL, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing SESSION_SECRET in production")
	}
}

func TestLoad_ProductionRejectsShortSecret(t *testing.T) {
	t.Setenv("ENV", "Prod")
	t.Setenv("SESSION_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short SESSION_SECRET in production")
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	secret := strings.Repeat("s", 32)
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", secret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.Secret != secret {
		t.Errorf("expected configured secret to be kept")
	}
	if cfg.IsDevelopment() {
		t.Error("production config reported development")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown DB_DRIVER")
	}
}

func TestLoad_MongoDriverAndOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Mongo")
	t.Setenv("MONGO_URL", "mongodb://db:27017")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverMongo {
		t.Errorf("expected mongo driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.MongoURL != "mongodb://db:27017" {
		t.Errorf("unexpected mongo url %q", cfg.Database.MongoURL)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("expected 2h TTL, got %s", cfg.Session.TTL)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("expected 2 CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_RejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("SESSION_TTL", "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero SESSION_TTL")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "u", Password: "p@ss", Name: "books"}
	dsn := d.DSN()
	if !strings.Contains(dsn, "tcp(db:3306)") {
		t.Errorf("expected default port appended, got %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime in DSN, got %q", dsn)
	}

	d.dsnOverride = "root:root@tcp(x:1)/y"
	if d.DSN() != "root:root@tcp(x:1)/y" {
		t.Errorf("expected DATABASE_URL override, got %q", d.DSN())
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{LogLevel: in}
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
