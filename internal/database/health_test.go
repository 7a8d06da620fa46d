package database

import (
	"context"
	"errors"
	"testing"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	h := NewHealthChecker()
	h.Add("db", func(ctx context.Context) error { return nil })
	h.Add("redis", func(ctx context.Context) error { return nil })

	status, ok := h.Check(context.Background())
	if !ok {
		t.Fatal("expected healthy")
	}
	if status["db"] != "ok" || status["redis"] != "ok" {
		t.Errorf("unexpected status %v", status)
	}
}

func TestHealthChecker_OneFailing(t *testing.T) {
	h := NewHealthChecker()
	h.Add("db", func(ctx context.Context) error { return nil })
	h.Add("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	status, ok := h.Check(context.Background())
	if ok {
		t.Fatal("expected unhealthy")
	}
	if status["redis"] != "unavailable" {
		t.Errorf("expected redis unavailable, got %q", status["redis"])
	}
	if status["db"] != "ok" {
		t.Errorf("expected db ok, got %q", status["db"])
	}
}

func TestHealthChecker_ReplaceKeepsSingleEntry(t *testing.T) {
	h := NewHealthChecker()
	h.Add("db", func(ctx context.Context) error { return errors.New("down") })
	h.Add("db", func(ctx context.Context) error { return nil })

	status, ok := h.Check(context.Background())
	if !ok || len(status) != 1 {
		t.Errorf("expected single healthy entry, got %v (ok=%v)", status, ok)
	}
}
