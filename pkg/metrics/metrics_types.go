// Package metrics exposes the shop's Prometheus collectors on a private
// registry so tests and servers never share global state.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry groups every collector the API records into.
type Registry struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	AuthFailuresTotal               *prometheus.CounterVec
	SecurityUnauthorizedAccessTotal prometheus.Counter
	SecuritySuspiciousEventsTotal   *prometheus.CounterVec
	SecurityThreatsTotal            *prometheus.CounterVec
	RateLimitHitsTotal              *prometheus.CounterVec
	RateLimitRejectionsTotal        *prometheus.CounterVec
	PipelineRejectionsTotal         *prometheus.CounterVec

	OrdersCreatedTotal   *prometheus.CounterVec
	OrderRevenueTotal    prometheus.Counter
	CartMutationsTotal   *prometheus.CounterVec
	UploadsTotal         *prometheus.CounterVec
	UploadSizeBytes      prometheus.Histogram
	StoreOperationErrors *prometheus.CounterVec

	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.Mutex
}

// NewRegistry builds a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}
	r.initHTTPMetrics()
	r.initSecurityMetrics()
	r.initShopMetrics()
	r.initSystemMetrics()
	return r
}

// GetPrometheusRegistry returns the registry /metrics gathers from.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
