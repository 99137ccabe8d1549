// Package ratelimit implements fixed-window request limiting with named
// limiter presets and pluggable counter stores.
package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/logging"
)

// DefaultMessage is used when a Config has no message.
const DefaultMessage = "Demasiadas solicitudes. Intentá más tarde."

// Config describes one limiter.
type Config struct {
	Name        string
	Window      time.Duration
	MaxRequests int
	Message     string
}

// Rejection is returned by Check when a key is over its limit.
type Rejection struct {
	Limiter    string
	Limit      int
	RetryAfter int // seconds until the window resets, rounded up
	ResetAt    time.Time
	Message    string
}

type rejectionBody struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Write renders the 429 response with Retry-After and X-RateLimit-* headers.
func (rj *Rejection) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Retry-After", strconv.Itoa(rj.RetryAfter))
	h.Set("X-RateLimit-Limit", strconv.Itoa(rj.Limit))
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", rj.ResetAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	h.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(rejectionBody{
		Success:    false,
		Message:    rj.Message,
		RetryAfter: rj.RetryAfter,
	})
}

// IPFunc resolves the caller address used in default keys.
type IPFunc func(*http.Request) string

// Limiter applies one Config against a Store.
type Limiter struct {
	cfg    Config
	store  Store
	ipFunc IPFunc
	logger logging.Logger
	now    func() time.Time
	onHit  func(name string, rejected bool)
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithIPFunc sets how the client address is resolved.
func WithIPFunc(fn IPFunc) Option {
	return func(l *Limiter) { l.ipFunc = fn }
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger logging.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithNow overrides the time source used for Retry-After.
func WithNow(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithObserver registers a callback invoked after every counted request.
func WithObserver(fn func(name string, rejected bool)) Option {
	return func(l *Limiter) { l.onHit = fn }
}

// New creates a limiter.
func New(cfg Config, store Store, opts ...Option) *Limiter {
	if cfg.Message == "" {
		cfg.Message = DefaultMessage
	}
	l := &Limiter{
		cfg:    cfg,
		store:  store,
		ipFunc: defaultIP,
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}

// Config returns the limiter's configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Key returns identifier when set, otherwise "ip:path".
func (l *Limiter) Key(r *http.Request, identifier string) string {
	if identifier != "" {
		return identifier
	}
	return l.ipFunc(r) + ":" + r.URL.Path
}

// Check counts the request and returns a Rejection once the count exceeds
// MaxRequests within the window. Store failures allow the request.
func (l *Limiter) Check(r *http.Request, identifier string) *Rejection {
	key := l.cfg.Name + "|" + l.Key(r, identifier)

	hit, err := l.store.Hit(r.Context(), key, l.cfg.Window)
	if err != nil {
		l.logger.Error("rate limit store failure, allowing request",
			logging.String("limiter", l.cfg.Name), logging.Error(err))
		return nil
	}

	rejected := hit.Count > int64(l.cfg.MaxRequests)
	if l.onHit != nil {
		l.onHit(l.cfg.Name, rejected)
	}
	if !rejected {
		return nil
	}

	retry := int(math.Ceil(hit.ResetAt.Sub(l.now()).Seconds()))
	if retry < 0 {
		retry = 0
	}

	return &Rejection{
		Limiter:    l.cfg.Name,
		Limit:      l.cfg.MaxRequests,
		RetryAfter: retry,
		ResetAt:    hit.ResetAt,
		Message:    l.cfg.Message,
	}
}

// Middleware rejects over-limit requests with Write and passes the rest.
func (l *Limiter) Middleware(onReject func(r *http.Request, rj *Rejection)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rj := l.Check(r, ""); rj != nil {
				if onReject != nil {
					onReject(r, rj)
				}
				rj.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
