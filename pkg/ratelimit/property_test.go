package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any N and W: N requests pass, the next is rejected with
// RetryAfter <= ceil(W/1s), and N more pass once W has elapsed.
func TestFixedWindowProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("fixed window admits exactly N per window", prop.ForAll(
		func(n int, windowMs int) bool {
			clock := newFakeClock()
			window := time.Duration(windowMs) * time.Millisecond
			l := newTestLimiter(clock, n, window)
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/p/%d", n), nil)

			for i := 0; i < n; i++ {
				if l.Check(req, "") != nil {
					return false
				}
			}
			rj := l.Check(req, "")
			if rj == nil || rj.RetryAfter > int(math.Ceil(float64(windowMs)/1000)) {
				return false
			}

			clock.Advance(window)
			for i := 0; i < n; i++ {
				if l.Check(req, "") != nil {
					return false
				}
			}
			return l.Check(req, "") != nil
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 3_600_000),
	))

	properties.TestingRun(t)
}
