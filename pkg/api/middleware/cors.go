package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig lists the cross-origin callers the storefront accepts.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// DefaultCORSConfig builds the storefront policy for origins. Sessions ride
// in a cookie, so credentials are allowed and "*" is never honoured.
func DefaultCORSConfig(origins []string) *CORSConfig {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o != "" && o != "*" {
			allowed = append(allowed, strings.TrimRight(o, "/"))
		}
	}
	return &CORSConfig{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

func (c *CORSConfig) allows(origin string) bool {
	return c != nil && origin != "" && slices.Contains(c.AllowedOrigins, origin)
}

// CORS echoes an allowed Origin with the policy headers. Preflights are
// answered here: 204 for allowed origins, 403 otherwise. A plain OPTIONS
// without Access-Control-Request-Method reaches the router.
func CORS(config *CORSConfig) func(http.Handler) http.Handler {
	var methods, headers, maxAge string
	if config != nil {
		methods = strings.Join(config.AllowedMethods, ", ")
		headers = strings.Join(config.AllowedHeaders, ", ")
		if config.MaxAge > 0 {
			maxAge = strconv.Itoa(config.MaxAge)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := config.allows(origin)

			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if config.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if maxAge != "" {
					h.Set("Access-Control-Max-Age", maxAge)
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					w.WriteHeader(http.StatusNoContent)
				} else {
					w.WriteHeader(http.StatusForbidden)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
