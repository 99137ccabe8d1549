package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shop"

// Route labels carry the chi pattern, never the raw request path.
var routeLabels = []string{"method", "path", "status"}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)

	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requests served, by route pattern and status",
	}, routeLabels)

	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Request latency, by route pattern and status",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, routeLabels)

	r.HTTPRequestsInFlight = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Requests currently being handled",
	})

	r.HTTPResponseSizeBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "Response body size, by route pattern",
		Buckets:   prometheus.ExponentialBuckets(128, 4, 7),
	}, []string{"method", "path"})
}

func (r *Registry) initSystemMetrics() {
	f := promauto.With(r.registry)
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	r.UptimeSeconds = gauge("uptime_seconds", "Seconds since the registry was created")
	r.GoRoutines = gauge("goroutines", "Live goroutines")
	r.MemoryAllocBytes = gauge("memory_alloc_bytes", "Heap bytes currently allocated")
	r.MemorySysBytes = gauge("memory_sys_bytes", "Bytes obtained from the OS")
}
