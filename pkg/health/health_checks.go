package health

import (
	"context"
	"os"
	"runtime"
	"time"
)

// Pinger is satisfied by the data store and the Redis limiter store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SimpleCheck always reports healthy
func SimpleCheck(name string) CheckFunc {
	return func(context.Context) Check {
		return Check{
			Name:        name,
			Status:      StatusHealthy,
			LastChecked: time.Now(),
		}
	}
}

// DatabaseCheck reports unhealthy when the store cannot be reached.
func DatabaseCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name: "database",
		}

		if err := db.Ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// RateLimitStoreCheck reports on the shared counter store. A nil pinger
// means counters live in process memory, which is healthy but not shared
// across replicas. A failing shared store degrades the service since
// limiters fail open.
func RateLimitStoreCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "rate_limit_store",
			Details: make(map[string]any),
		}

		if p == nil {
			check.Status = StatusHealthy
			check.Message = "In-memory counters"
			check.Details["shared"] = false
			return check
		}

		check.Details["shared"] = true
		if err := p.Ping(ctx); err != nil {
			check.Status = StatusDegraded
			check.Message = "Counter store unreachable, limits not enforced: " + err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}
		return check
	}
}

// UploadDirCheck verifies that the local image directory exists and is a
// directory. Empty dir means uploads go to object storage.
func UploadDirCheck(dir string) CheckFunc {
	return func(context.Context) Check {
		check := Check{
			Name:    "uploads",
			Details: map[string]any{"dir": dir},
		}

		if dir == "" {
			check.Status = StatusHealthy
			check.Message = "Object storage"
			return check
		}

		info, err := os.Stat(dir)
		switch {
		case err != nil:
			check.Status = StatusDegraded
			check.Message = err.Error()
		case !info.IsDir():
			check.Status = StatusDegraded
			check.Message = "not a directory"
		default:
			check.Status = StatusHealthy
			check.Message = "Writable directory present"
		}
		return check
	}
}

// MemoryCheck creates a health check for memory usage. getUsage defaults to
// the runtime's own statistics.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	if getUsage == nil {
		getUsage = func() (uint64, uint64) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return m.Alloc, m.Sys
		}
	}
	return func(context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys == 0 {
			check.Status = StatusHealthy
			check.Message = "Memory usage unknown"
			return check
		}

		usagePercent := float64(alloc) / float64(sys) * 100

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
