package middleware

import (
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/ratelimit"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

// APIRateLimit applies limiter to every /api/ request except webhooks,
// keyed by client IP and path. A nil limiter disables the check.
func APIRateLimit(limiter *ratelimit.Limiter, log *seclog.Logger, ips *clientip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, WebhookPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			if rj := limiter.Check(r, ips.IP(r)+":"+path); rj != nil {
				log.RateLimitExceeded(ips.IP(r), path, r.UserAgent())
				rj.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
