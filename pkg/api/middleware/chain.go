package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/config"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/ratelimit"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

// EdgeConfig wires the edge chain.
type EdgeConfig struct {
	SiteURL       string
	Rules         *config.RouteRules
	Tokens        guard.Verifier
	SecLog        *seclog.Logger
	Logger        logging.Logger
	Detector      security.ThreatDetector
	IPs           *clientip.Resolver
	Limiter       *ratelimit.Limiter // global API limiter; nil disables
	Metrics       MetricsRecorder
	UploadLimit   int64
	SlowRequest   time.Duration
	SecureCookies bool
	CORSOrigins   []string
}

// Edge is the ordered middleware chain that runs ahead of every route.
type Edge struct {
	cfg  EdgeConfig
	Gate *RouteGate
}

// NewEdge fills defaults and builds the route gate.
func NewEdge(cfg EdgeConfig) *Edge {
	if cfg.SecLog == nil {
		cfg.SecLog = seclog.NewNop()
	}
	if cfg.Detector == nil {
		cfg.Detector = security.NewRegexDetector()
	}
	if cfg.IPs == nil {
		cfg.IPs = clientip.NewResolver(nil)
	}
	return &Edge{
		cfg:  cfg,
		Gate: NewRouteGate(cfg.Rules, cfg.Tokens, cfg.SecLog, cfg.IPs, cfg.SecureCookies),
	}
}

// Middlewares returns the chain outermost first: request ID, recovery,
// access log, metrics, security headers, CORS, URL/query screen, CSRF,
// upload pre-screen, global API limit, route gate.
func (e *Edge) Middlewares() []func(http.Handler) http.Handler {
	c := e.cfg
	chain := []func(http.Handler) http.Handler{
		RequestID(),
		PanicRecovery(c.SecLog),
		Logging(c.Logger, GetRequestID, c.SlowRequest),
		Metrics(c.Metrics),
		SecurityHeaders(),
	}
	if len(c.CORSOrigins) > 0 {
		chain = append(chain, CORS(DefaultCORSConfig(c.CORSOrigins)))
	}
	return append(chain,
		ThreatScreen(c.Detector, c.SecLog, c.IPs),
		CSRF(c.SiteURL, c.SecLog, c.IPs),
		UploadSizeLimit(c.UploadLimit, c.SecLog, c.IPs),
		APIRateLimit(c.Limiter, c.SecLog, c.IPs),
		e.Gate.Middleware,
	)
}

// Wrap applies the chain around h.
func (e *Edge) Wrap(h http.Handler) http.Handler {
	mws := e.Middlewares()
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
