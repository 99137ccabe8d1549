package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

// MsgOriginNotAllowed answers a CSRF origin mismatch.
const MsgOriginNotAllowed = "Origen no permitido"

// DevOrigin is always accepted so the local storefront can call the API.
const DevOrigin = "http://localhost:3000"

// WebhookPrefix is exempt from CSRF and the global rate limit.
const WebhookPrefix = "/api/webhooks"

// sameOrigin compares scheme and host:port exactly, ignoring case and any
// path on the allowed entry.
func sameOrigin(origin, allowed string) bool {
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return false
	}
	a, err := url.Parse(allowed)
	if err != nil || a.Host == "" {
		return false
	}
	return strings.EqualFold(o.Scheme, a.Scheme) && strings.EqualFold(o.Host, a.Host)
}

// allowedOrigins derives the allow-list for r: the configured site URL, the
// request host over either scheme, and the local development origin.
func allowedOrigins(siteURL string, r *http.Request) []string {
	origins := make([]string, 0, 4)
	if siteURL != "" {
		origins = append(origins, siteURL)
	}
	if r.Host != "" {
		origins = append(origins, "https://"+r.Host, "http://"+r.Host)
	}
	return append(origins, DevOrigin)
}

// CSRF checks the Origin of every request that is not GET or HEAD, outside
// WebhookPrefix. Origins must equal an allowed scheme and host. Requests with
// no Origin header are let through.
func CSRF(siteURL string, log *seclog.Logger, ips *clientip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead ||
				strings.HasPrefix(r.URL.Path, WebhookPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := allowedOrigins(siteURL, r)
			for _, a := range allowed {
				if sameOrigin(origin, a) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.SuspiciousActivity(KindCSRFMismatch, ips.IP(r), r.URL.Path, map[string]any{
				"origin":         origin,
				"allowedOrigins": allowed,
			})
			guard.WriteError(w, http.StatusForbidden, MsgOriginNotAllowed)
		})
	}
}
