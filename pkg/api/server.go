// Package api is the storefront and admin HTTP API: a chi router whose
// routes are built with the guard pipeline and wrapped by the edge chain.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-shop/pkg/api/middleware"
	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/clientip"
	"github.com/dd0wney/cluso-shop/pkg/config"
	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/health"
	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/media"
	"github.com/dd0wney/cluso-shop/pkg/metrics"
	"github.com/dd0wney/cluso-shop/pkg/ratelimit"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
	"github.com/dd0wney/cluso-shop/pkg/security"
	"github.com/dd0wney/cluso-shop/pkg/store"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// Options wires a Server. Store, Tokens and Media are required.
type Options struct {
	Store  store.Store
	Tokens *auth.TokenManager
	Media  media.Storage

	SecLog *seclog.Logger
	Logger logging.Logger

	// Metrics enables /metrics and the security counters; nil disables both.
	Metrics     *metrics.Registry
	MetricsPath string

	// LimitStore backs every limiter; an in-memory store is used when nil.
	LimitStore ratelimit.Store

	// Detector screens URLs, bodies and search terms; regex signatures by default.
	Detector security.ThreatDetector

	IPs         *clientip.Resolver
	Rules       *config.RouteRules
	SiteURL     string
	Production  bool
	CORSOrigins []string
	UploadLimit int64
	UploadDir   string
	SlowRequest time.Duration

	// Now is the clock used for upload names and stats timestamps.
	Now func() time.Time
}

// Server holds the API dependencies.
type Server struct {
	store    store.Store
	tokens   *auth.TokenManager
	media    media.Storage
	seclog   *seclog.Logger
	logger   logging.Logger
	metrics  *metrics.Registry
	limits   *ratelimit.Set
	guard    *guard.Factory
	edge     *middleware.Edge
	health   *health.HealthChecker
	detector security.ThreatDetector
	secure   bool
	now      func() time.Time

	metricsPath string
	handler     http.Handler
}

// NewServer validates opts, fills defaults and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("api: token manager is required")
	}
	if opts.Media == nil {
		return nil, errors.New("api: media storage is required")
	}
	if opts.SecLog == nil {
		opts.SecLog = seclog.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.IPs == nil {
		opts.IPs = clientip.NewResolver(nil)
	}
	if opts.LimitStore == nil {
		opts.LimitStore = ratelimit.NewMemoryStore(time.Minute)
	}
	if opts.Detector == nil {
		opts.Detector = security.NewRegexDetector()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:       opts.Store,
		tokens:      opts.Tokens,
		media:       opts.Media,
		seclog:      opts.SecLog,
		logger:      opts.Logger.With(logging.Component("api")),
		metrics:     opts.Metrics,
		detector:    opts.Detector,
		secure:      opts.Production,
		now:         opts.Now,
		metricsPath: opts.MetricsPath,
	}

	limitOpts := []ratelimit.Option{
		ratelimit.WithIPFunc(opts.IPs.IP),
		ratelimit.WithLogger(opts.Logger),
	}
	guardOpts := []guard.Option{
		guard.WithIPResolver(opts.IPs),
		guard.WithProduction(opts.Production),
		guard.WithDetector(opts.Detector),
	}
	var recorder middleware.MetricsRecorder
	if s.metrics != nil {
		limitOpts = append(limitOpts, ratelimit.WithObserver(s.metrics.RecordRateLimit))
		guardOpts = append(guardOpts, guard.WithObserver(s.metrics.RecordRejection))
		guardOpts = append(guardOpts, guard.WithFailureHook(storeFailureHook(s.metrics)))
		s.seclog.AddHook(securityMetricsHook(s.metrics))
		recorder = s.metrics
	}
	s.limits = ratelimit.NewSet(opts.LimitStore, limitOpts...)
	s.guard = guard.New(s.tokens, s.seclog, guardOpts...)

	s.edge = middleware.NewEdge(middleware.EdgeConfig{
		SiteURL:       opts.SiteURL,
		Rules:         opts.Rules,
		Detector:      opts.Detector,
		Tokens:        s.tokens,
		SecLog:        s.seclog,
		Logger:        opts.Logger,
		IPs:           opts.IPs,
		Limiter:       s.limits.Global,
		Metrics:       recorder,
		UploadLimit:   opts.UploadLimit,
		SlowRequest:   opts.SlowRequest,
		SecureCookies: opts.Production,
		CORSOrigins:   opts.CORSOrigins,
	})

	s.health = health.NewHealthChecker()
	s.health.RegisterLivenessCheck("process", health.SimpleCheck("process"))
	s.health.RegisterLivenessCheck("memory", health.MemoryCheck(nil))
	s.health.RegisterReadinessCheck("database", health.DatabaseCheck(s.store))
	s.health.RegisterCheck("database", health.DatabaseCheck(s.store))
	var limitPinger health.Pinger
	if p, ok := opts.LimitStore.(health.Pinger); ok {
		limitPinger = p
	}
	s.health.RegisterCheck("ratelimit_store", health.RateLimitStoreCheck(limitPinger))
	s.health.RegisterCheck("uploads", health.UploadDirCheck(opts.UploadDir))

	s.handler = s.routes()
	return s, nil
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// SetRouteRules swaps the edge authorisation rules at runtime.
func (s *Server) SetRouteRules(rules *config.RouteRules) {
	s.edge.Gate.SetRules(rules)
}

// Health exposes the checker so callers can register more checks.
func (s *Server) Health() *health.HealthChecker {
	return s.health
}

// routes builds the chi router. The edge chain is installed with Use so the
// metrics middleware sees the matched route pattern.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.edge.Middlewares()...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		guard.WriteError(w, http.StatusNotFound, MsgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		guard.WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	})

	r.Get("/health", s.health.HTTPHandler())
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metricsHandler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Handle("/login", s.loginRoute())
			r.Handle("/registro", s.registerRoute())
			r.Handle("/me", s.meRoute())
			r.Handle("/logout", s.logoutRoute())
		})

		r.Handle("/productos", s.productsRoute())
		r.Handle("/productos/{slug}", s.productRoute())
		r.Handle("/categorias", s.categoriesRoute())
		r.Handle("/consultas", s.inquiriesRoute())

		r.Handle("/carrito", s.cartRoute())
		r.Handle("/carrito/{id}", s.cartItemRoute())
		r.Handle("/checkout", s.checkoutRoute())
		r.Handle("/cuenta/pedidos", s.myOrdersRoute())

		r.Route("/admin", func(r chi.Router) {
			r.Handle("/stats", s.statsRoute())
			r.Handle("/productos", s.adminProductsRoute())
			r.Handle("/productos/{id}", s.adminProductRoute())
			r.Handle("/upload/producto", s.uploadRoute())
			r.Handle("/pedidos", s.adminOrdersRoute())
			r.Handle("/pedidos/{id}", s.adminOrderRoute())
		})

		r.Handle("/usuarios", s.usersRoute())
		r.Handle("/usuarios/{id}", s.userRoute())
	})

	return r
}

func (s *Server) metricsHandler() http.Handler {
	h := promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.UpdateSystemMetrics()
		h.ServeHTTP(w, r)
	})
}
