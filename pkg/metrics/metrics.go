package metrics

import (
	"runtime"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of a response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordRateLimit counts one limiter decision.
func (r *Registry) RecordRateLimit(limiter string, rejected bool) {
	r.RateLimitHitsTotal.WithLabelValues(limiter).Inc()
	if rejected {
		r.RateLimitRejectionsTotal.WithLabelValues(limiter).Inc()
	}
}

// RecordRejection counts a handler pipeline rejection.
func (r *Registry) RecordRejection(reason string) {
	r.PipelineRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordOrder counts a placed order and its total.
func (r *Registry) RecordOrder(paymentMethod string, total float64) {
	r.OrdersCreatedTotal.WithLabelValues(paymentMethod).Inc()
	r.OrderRevenueTotal.Add(total)
}

// RecordCartMutation counts add, update, remove and clear operations.
func (r *Registry) RecordCartMutation(operation string) {
	r.CartMutationsTotal.WithLabelValues(operation).Inc()
}

// RecordUpload counts an upload attempt; size is observed for accepted files only.
func (r *Registry) RecordUpload(status string, size int) {
	r.UploadsTotal.WithLabelValues(status).Inc()
	if status == "accepted" {
		r.UploadSizeBytes.Observe(float64(size))
	}
}

// RecordStoreError counts an unexpected failure behind operation.
func (r *Registry) RecordStoreError(operation string) {
	r.StoreOperationErrors.WithLabelValues(operation).Inc()
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges.
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}
