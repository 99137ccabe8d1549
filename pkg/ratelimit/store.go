package ratelimit

import (
	"context"
	"time"
)

// Hit is the state of one counter after an increment.
type Hit struct {
	Count   int64
	ResetAt time.Time
}

// Store keeps fixed-window counters. Hit must increment and report the
// post-increment count as one atomic step, starting a fresh window with
// count 1 when the key is absent or its window has elapsed.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Hit, error)
	Close() error
}
