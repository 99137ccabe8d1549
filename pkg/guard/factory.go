package guard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/ratelimit"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

// DefaultMaxBodySize bounds body reads when a route sets no MaxBodySize.
const DefaultMaxBodySize int64 = 1 << 20

// Config is the per-route pipeline configuration.
type Config struct {
	RequireAuth    bool
	AllowedRoles   []string
	Schema         validation.Schema
	RateLimit      *ratelimit.Limiter
	MaxBodySize    int64
	AllowedMethods []string

	// HTMLFields are body fields sanitised with SanitizeHTML instead of SanitizeString.
	HTMLFields []string

	// NoBody skips the body stage; the callback owns r.Body (multipart uploads, logout).
	NoBody bool
}

// Context is what a callback receives once every stage passed.
// User is nil when the route does not require authentication.
type Context struct {
	User      *auth.Identity
	Body      any
	IP        string
	UserAgent string
}

// HandlerFunc is the business callback.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, c *Context) error

// Body returns the decoded body as *T, or nil when the schema produced another type.
func Body[T any](c *Context) *T {
	v, _ := c.Body.(*T)
	return v
}

// Verifier resolves a session token to an identity, nil on any failure.
type Verifier interface {
	Verify(token string) *auth.Identity
}

// Rejection reasons reported to the observer.
const (
	ReasonMethod       = "method"
	ReasonRateLimit    = "rate_limit"
	ReasonUnauthorized = "unauthorized"
	ReasonForbidden    = "forbidden"
	ReasonContentType  = "content_type"
	ReasonBodyTooLarge = "body_too_large"
	ReasonSuspicious   = "suspicious_input"
	ReasonInvalidJSON  = "invalid_json"
	ReasonInvalidData  = "invalid_data"
	ReasonInternal     = "internal_error"
)

// Factory builds guarded handlers sharing one token verifier, security logger and detector.
type Factory struct {
	tokens     Verifier
	log        *seclog.Logger
	detector   security.ThreatDetector
	ips        *clientip.Resolver
	production bool
	observe    func(reason string)
	onFail     func(r *http.Request, err error)
}

// Option customises a Factory.
type Option func(*Factory)

func WithDetector(d security.ThreatDetector) Option {
	return func(f *Factory) { f.detector = d }
}

func WithIPResolver(res *clientip.Resolver) Option {
	return func(f *Factory) { f.ips = res }
}

// WithProduction hides internal error messages from 500 responses.
func WithProduction(production bool) Option {
	return func(f *Factory) { f.production = production }
}

// WithObserver is called with the reason of every rejection.
func WithObserver(fn func(reason string)) Option {
	return func(f *Factory) { f.observe = fn }
}

// WithFailureHook is called with every error that ends in a 500.
func WithFailureHook(fn func(r *http.Request, err error)) Option {
	return func(f *Factory) { f.onFail = fn }
}

// New creates a handler factory.
func New(tokens Verifier, log *seclog.Logger, opts ...Option) *Factory {
	f := &Factory{
		tokens:   tokens,
		log:      log,
		detector: security.NewRegexDetector(),
		ips:      clientip.NewResolver(nil),
		observe:  func(string) {},
		onFail:   func(*http.Request, error) {},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IP returns the client address the factory attributes to r.
func (f *Factory) IP(r *http.Request) string {
	return f.ips.IP(r)
}

// Identify returns the identity carried by the request cookie, or nil.
// Routes without RequireAuth use it when a user is optional.
func (f *Factory) Identify(r *http.Request) *auth.Identity {
	token := auth.TokenFromRequest(r)
	if token == "" {
		return nil
	}
	return f.tokens.Verify(token)
}

// Handler wraps fn with the validation pipeline described by cfg.
func (f *Factory) Handler(cfg Config, fn HandlerFunc) http.Handler {
	html := make(map[string]bool, len(cfg.HTMLFields))
	for _, name := range cfg.HTMLFields {
		html[name] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		ip := f.ips.IP(r)
		userAgent := r.Header.Get("User-Agent")
		if userAgent == "" {
			userAgent = clientip.Unknown
		}

		defer func() {
			if rec := recover(); rec != nil {
				f.fail(tw, r, ip, fmt.Errorf("panic: %v", rec))
			}
		}()

		if !f.checkMethod(tw, r, cfg.AllowedMethods) {
			return
		}

		if cfg.RateLimit != nil {
			if rj := cfg.RateLimit.Check(r, ""); rj != nil {
				f.log.RateLimitExceeded(ip, r.URL.Path, userAgent)
				f.observe(ReasonRateLimit)
				rj.Write(tw)
				return
			}
		}

		user, ok := f.checkAuth(tw, r, cfg, ip)
		if !ok {
			return
		}

		body, ok := f.readBody(tw, r, cfg, ip, html)
		if !ok {
			return
		}

		err := fn(tw, r, &Context{User: user, Body: body, IP: ip, UserAgent: userAgent})
		if err == nil {
			return
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			if !tw.wrote {
				WriteHTTPError(tw, httpErr)
			}
			return
		}
		f.fail(tw, r, ip, err)
	})
}

func (f *Factory) checkMethod(w http.ResponseWriter, r *http.Request, allowed []string) bool {
	if len(allowed) == 0 || slices.Contains(allowed, r.Method) {
		return true
	}
	f.observe(ReasonMethod)
	writeMethodNotAllowed(w, r.Method, allowed)
	return false
}

func writeMethodNotAllowed(w http.ResponseWriter, method string, allowed []string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	WriteJSON(w, http.StatusMethodNotAllowed, errorEnvelope{
		Message:        fmt.Sprintf("Método %s no permitido", method),
		AllowedMethods: allowed,
	})
}

func (f *Factory) checkAuth(w http.ResponseWriter, r *http.Request, cfg Config, ip string) (*auth.Identity, bool) {
	if !cfg.RequireAuth {
		return nil, true
	}

	token := auth.TokenFromRequest(r)
	if token == "" {
		f.log.UnauthorizedAccess(r.URL.Path, ip, 0, "")
		f.observe(ReasonUnauthorized)
		WriteError(w, http.StatusUnauthorized, MsgNotAuthenticated)
		return nil, false
	}

	user := f.tokens.Verify(token)
	if user == nil {
		f.log.UnauthorizedAccess(r.URL.Path, ip, 0, "")
		f.observe(ReasonUnauthorized)
		WriteError(w, http.StatusUnauthorized, MsgInvalidToken)
		return nil, false
	}

	if len(cfg.AllowedRoles) > 0 && !slices.Contains(cfg.AllowedRoles, user.Role) {
		f.log.UnauthorizedAccess(r.URL.Path, ip, user.ID, user.Email)
		f.observe(ReasonForbidden)
		WriteError(w, http.StatusForbidden, MsgForbidden)
		return nil, false
	}

	return user, true
}

// readBody runs content-type, size, threat, JSON and schema checks in that order.
// GET and DELETE carry no body.
func (f *Factory) readBody(w http.ResponseWriter, r *http.Request, cfg Config, ip string, html map[string]bool) (any, bool) {
	if cfg.NoBody || r.Method == http.MethodGet || r.Method == http.MethodDelete {
		return nil, true
	}

	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		f.observe(ReasonContentType)
		WriteError(w, http.StatusBadRequest, MsgContentType)
		return nil, false
	}

	limit := cfg.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}

	if r.ContentLength > limit {
		f.tooLarge(w, r, ip, r.ContentLength, limit)
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			f.tooLarge(w, r, ip, maxErr.Limit, limit)
			return nil, false
		}
		WriteError(w, http.StatusBadRequest, MsgUnreadableBody)
		return nil, false
	}
	if int64(len(data)) > limit {
		f.tooLarge(w, r, ip, int64(len(data)), limit)
		return nil, false
	}

	text := string(data)
	sqli := f.detector.LooksLikeSQLInjection(text)
	xss := f.detector.LooksLikeXSS(text)
	if sqli || xss {
		if sqli {
			f.log.SQLInjectionAttempt(ip, text, r.URL.Path)
		}
		if xss {
			f.log.XSSAttempt(ip, text, r.URL.Path)
		}
		f.observe(ReasonSuspicious)
		WriteError(w, http.StatusBadRequest, MsgSuspiciousInput)
		return nil, false
	}

	var raw any
	if err := unmarshal(data, &raw); err != nil {
		f.observe(ReasonInvalidJSON)
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return nil, false
	}

	body := raw
	if cfg.Schema != nil {
		decoded, err := cfg.Schema.Decode(data)
		if err != nil {
			var fe validation.FieldErrors
			if !errors.As(err, &fe) {
				fe = validation.FieldErrors{"body": {err.Error()}}
			}
			f.observe(ReasonInvalidData)
			WriteFieldErrors(w, MsgInvalidData, fe)
			return nil, false
		}
		body = decoded
	}

	return sanitizeBody(body, html), true
}

func (f *Factory) tooLarge(w http.ResponseWriter, r *http.Request, ip string, size, limit int64) {
	f.log.SuspiciousActivity("BODY_TOO_LARGE", ip, r.URL.Path, map[string]any{
		"size":    size,
		"maxSize": limit,
	})
	f.observe(ReasonBodyTooLarge)
	WriteError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
}

// fail logs an unexpected error and answers 500 unless a response already started.
func (f *Factory) fail(w *trackingWriter, r *http.Request, ip string, err error) {
	f.log.Error("Error en "+r.URL.Path, err, seclog.Context{IP: ip, Method: r.Method, Endpoint: r.URL.Path})
	f.observe(ReasonInternal)
	f.onFail(r, err)
	if w.wrote {
		return
	}

	env := errorEnvelope{Message: MsgInternalError}
	if !f.production {
		env.Error = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, env)
}
