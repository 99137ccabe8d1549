package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/logging"
)

// Logging writes one structured access line per request. Requests slower
// than slow are logged at warn level; slow <= 0 disables the warning.
func Logging(logger logging.Logger, getRequestID func(*http.Request) string, slow time.Duration) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			fields := []logging.Field{
				logging.Method(r.Method),
				logging.Path(r.URL.Path),
				logging.Status(rec.code()),
				logging.Latency(elapsed),
				logging.Int("bytes", rec.bytes),
			}
			if getRequestID != nil {
				if id := getRequestID(r); id != "" {
					fields = append(fields, logging.RequestID(id))
				}
			}

			switch {
			case slow > 0 && elapsed > slow:
				logger.Warn("slow response", fields...)
			case rec.code() >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			default:
				logger.Debug("request", fields...)
			}
		})
	}
}
