package database

import (
	"context"
	"time"
)

// HealthChecker pings each registered backing store for /healthz.
type HealthChecker struct {
	names  []string
	checks map[string]func(ctx context.Context) error
}

// NewHealthChecker creates an empty checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]func(ctx context.Context) error)}
}

// Add registers a named check. Registration order is preserved in reports.
func (h *HealthChecker) Add(name string, check func(ctx context.Context) error) {
	if _, exists := h.checks[name]; !exists {
		h.names = append(h.names, name)
	}
	h.checks[name] = check
}

// Check runs every check with a short timeout and returns a per-store status
// ("ok" or "unavailable") plus whether all of them passed.
func (h *HealthChecker) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.names))
	healthy := true
	for _, name := range h.names {
		if err := h.checks[name](ctx); err != nil {
			status[name] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	return status, healthy
}
