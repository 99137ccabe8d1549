package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSecurityMetrics() {
	r.AuthFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_auth_failures_total",
			Help: "Total number of failed logins by reason",
		},
		[]string{"reason"},
	)

	r.SecurityUnauthorizedAccessTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "shop_security_unauthorized_access_total",
			Help: "Total number of unauthorized access attempts",
		},
	)

	r.SecuritySuspiciousEventsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_security_suspicious_events_total",
			Help: "Total number of suspicious activity events by kind",
		},
		[]string{"kind"},
	)

	r.SecurityThreatsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_security_threats_total",
			Help: "Total number of detected injection attempts by kind",
		},
		[]string{"kind"},
	)

	r.RateLimitHitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_ratelimit_hits_total",
			Help: "Total number of requests counted by each limiter",
		},
		[]string{"limiter"},
	)

	r.RateLimitRejectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_ratelimit_rejections_total",
			Help: "Total number of requests rejected by each limiter",
		},
		[]string{"limiter"},
	)

	r.PipelineRejectionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_pipeline_rejections_total",
			Help: "Total number of requests rejected by the handler pipeline by stage",
		},
		[]string{"reason"},
	)
}
