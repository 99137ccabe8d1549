package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

type requestIDKey struct{}

// GetRequestID returns the ID RequestID stored on r, or "".
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func requestIDRune(c rune) rune {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return c
	case c == '-', c == '_', c == '.':
		return c
	}
	return -1
}

// clientRequestID truncates the header to 64 bytes and keeps [A-Za-z0-9._-].
func clientRequestID(raw string) string {
	if len(raw) > maxRequestIDLength {
		raw = raw[:maxRequestIDLength]
	}
	return strings.Map(requestIDRune, raw)
}

// RequestID tags every request with an ID, echoed in X-Request-ID. A usable
// client-supplied ID is kept; otherwise a UUIDv4 is generated.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientRequestID(r.Header.Get(RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}
