package health

import (
	"context"
	"sync"
	"time"
)

// Status is a component's health; the worst one decides a report.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultCheckTimeout bounds each check run by the HTTP handlers.
const DefaultCheckTimeout = 2 * time.Second

// Check is one component's result.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc performs a health check. Implementations must honour ctx.
type CheckFunc func(ctx context.Context) Check

type probe int

const (
	probeHealth probe = iota
	probeReadiness
	probeLiveness
)

// HealthChecker holds the checks behind /health, /health/ready and
// /health/live. Each probe runs its checks concurrently.
type HealthChecker struct {
	mu        sync.RWMutex
	probes    map[probe]map[string]CheckFunc
	startTime time.Time
	timeout   time.Duration
}

// Response is the JSON body of every health endpoint.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}
