// Package health aggregates component checks into liveness, readiness and
// overall health reports.
package health

import (
	"context"
	"sync"
	"time"
)

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		probes: map[probe]map[string]CheckFunc{
			probeHealth:    {},
			probeReadiness: {},
			probeLiveness:  {},
		},
		startTime: time.Now(),
		timeout:   DefaultCheckTimeout,
	}
}

// SetTimeout changes the per-check deadline. Non-positive values are ignored.
func (hc *HealthChecker) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	hc.mu.Lock()
	hc.timeout = d
	hc.mu.Unlock()
}

func (hc *HealthChecker) register(p probe, name string, check CheckFunc) {
	hc.mu.Lock()
	hc.probes[p][name] = check
	hc.mu.Unlock()
}

// RegisterCheck adds a check to the full /health report.
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.register(probeHealth, name, check)
}

func (hc *HealthChecker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.register(probeReadiness, name, check)
}

func (hc *HealthChecker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.register(probeLiveness, name, check)
}

func (hc *HealthChecker) Check(ctx context.Context) Response {
	return hc.run(ctx, probeHealth)
}

func (hc *HealthChecker) CheckReadiness(ctx context.Context) Response {
	return hc.run(ctx, probeReadiness)
}

func (hc *HealthChecker) CheckLiveness(ctx context.Context) Response {
	return hc.run(ctx, probeLiveness)
}

func (hc *HealthChecker) run(ctx context.Context, p probe) Response {
	hc.mu.RLock()
	checks := make(map[string]CheckFunc, len(hc.probes[p]))
	for name, fn := range hc.probes[p] {
		checks[name] = fn
	}
	timeout := hc.timeout
	hc.mu.RUnlock()

	resp := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(hc.startTime).Seconds(),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, fn := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			c := fn(checkCtx)
			cancel()
			c.Duration = time.Since(start)
			c.LastChecked = start
			if c.Name == "" {
				c.Name = name
			}

			mu.Lock()
			resp.Checks[name] = c
			resp.Status = worse(resp.Status, c.Status)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return resp
}

func worse(a, b Status) Status {
	rank := func(s Status) int {
		switch s {
		case StatusUnhealthy:
			return 2
		case StatusDegraded:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
