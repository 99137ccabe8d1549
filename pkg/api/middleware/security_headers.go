package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// ContentSecurityPolicy allows the payment provider's SDK, API and checkout frame.
const ContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://sdk.mercadopago.com; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https: blob:; " +
	"font-src 'self' data:; " +
	"connect-src 'self' https://api.mercadopago.com; " +
	"frame-src https://www.mercadopago.com; " +
	"frame-ancestors 'self'; " +
	"base-uri 'self'; " +
	"form-action 'self'"

// ResponseTimeHeader carries the edge-measured latency, e.g. "12ms".
const ResponseTimeHeader = "X-Response-Time"

var securityHeaders = [][2]string{
	{"X-DNS-Prefetch-Control", "on"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()"},
	{"Content-Security-Policy", ContentSecurityPolicy},
}

// timingWriter stamps X-Response-Time just before the header is flushed.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	now         func() time.Time
	wroteHeader bool
}

func (t *timingWriter) stamp() {
	if t.wroteHeader {
		return
	}
	t.wroteHeader = true
	ms := t.now().Sub(t.start).Milliseconds()
	t.Header().Set(ResponseTimeHeader, strconv.FormatInt(ms, 10)+"ms")
}

func (t *timingWriter) WriteHeader(code int) {
	t.stamp()
	t.ResponseWriter.WriteHeader(code)
}

func (t *timingWriter) Write(b []byte) (int, error) {
	t.stamp()
	return t.ResponseWriter.Write(b)
}

func (t *timingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// SecurityHeaders adds the security header set to every response, including
// rejections produced further down the chain, and measures X-Response-Time.
func SecurityHeaders() func(http.Handler) http.Handler {
	return securityHeadersWithClock(time.Now)
}

func securityHeadersWithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range securityHeaders {
				h.Set(kv[0], kv[1])
			}
			tw := &timingWriter{ResponseWriter: w, start: now(), now: now}
			next.ServeHTTP(tw, r)
			tw.stamp()
		})
	}
}
