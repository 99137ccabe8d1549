package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.RateLimitRejectionsTotal == nil {
		t.Error("RateLimitRejectionsTotal not initialized")
	}
	if r.OrdersCreatedTotal == nil {
		t.Error("OrdersCreatedTotal not initialized")
	}
	if r.UptimeSeconds == nil {
		t.Error("UptimeSeconds not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/api/productos", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/carrito", "201", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/productos", "404", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/api/productos", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 1 {
		t.Errorf("Counter value = %v, want 1", got)
	}
}

func TestRecordRateLimit(t *testing.T) {
	r := NewRegistry()

	r.RecordRateLimit("login", false)
	r.RecordRateLimit("login", false)
	r.RecordRateLimit("login", true)

	if got := counterValue(t, r.RateLimitHitsTotal.WithLabelValues("login")); got != 3 {
		t.Errorf("hits = %v, want 3", got)
	}
	if got := counterValue(t, r.RateLimitRejectionsTotal.WithLabelValues("login")); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
	if got := counterValue(t, r.RateLimitRejectionsTotal.WithLabelValues("checkout")); got != 0 {
		t.Errorf("checkout rejections = %v, want 0", got)
	}
}

func TestRecordOrder(t *testing.T) {
	r := NewRegistry()

	r.RecordOrder("mercadopago", 1500)
	r.RecordOrder("transferencia", 250.5)

	if got := counterValue(t, r.OrdersCreatedTotal.WithLabelValues("mercadopago")); got != 1 {
		t.Errorf("orders = %v, want 1", got)
	}
	if got := counterValue(t, r.OrderRevenueTotal); got != 1750.5 {
		t.Errorf("revenue = %v, want 1750.5", got)
	}
}

func TestRecordUpload(t *testing.T) {
	r := NewRegistry()

	r.RecordUpload("accepted", 2048)
	r.RecordUpload("rejected", 9999999)

	var metric dto.Metric
	if err := r.UploadSizeBytes.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("Sample count = %v, want 1", metric.Histogram.GetSampleCount())
	}
	if got := counterValue(t, r.UploadsTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("rejected uploads = %v, want 1", got)
	}
}

func TestSecurityCounters(t *testing.T) {
	r := NewRegistry()

	r.AuthFailuresTotal.WithLabelValues("invalid_password").Inc()
	r.AuthFailuresTotal.WithLabelValues("user_not_found").Inc()
	r.AuthFailuresTotal.WithLabelValues("invalid_password").Inc()
	r.SecurityUnauthorizedAccessTotal.Inc()
	r.SecurityThreatsTotal.WithLabelValues("sql_injection").Inc()
	r.RecordRejection("content_type")

	if got := counterValue(t, r.AuthFailuresTotal.WithLabelValues("invalid_password")); got != 2 {
		t.Errorf("invalid_password = %v, want 2", got)
	}
	if got := counterValue(t, r.SecurityUnauthorizedAccessTotal); got != 1 {
		t.Errorf("unauthorized = %v, want 1", got)
	}
	if got := counterValue(t, r.SecurityThreatsTotal.WithLabelValues("sql_injection")); got != 1 {
		t.Errorf("threats = %v, want 1", got)
	}
	if got := counterValue(t, r.PipelineRejectionsTotal.WithLabelValues("content_type")); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()
	time.Sleep(5 * time.Millisecond)
	r.UpdateSystemMetrics()

	var metric dto.Metric
	if err := r.UptimeSeconds.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() <= 0 {
		t.Errorf("uptime = %v, want > 0", metric.Gauge.GetValue())
	}

	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("goroutines = %v, want >= 1", metric.Gauge.GetValue())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	promRegistry := r.GetPrometheusRegistry()
	if promRegistry == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	metrics, err := promRegistry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	expectedMetrics := []string{
		"shop_http_requests_in_flight",
		"shop_order_revenue_total",
		"shop_security_unauthorized_access_total",
		"shop_uptime_seconds",
	}

	metricNames := make(map[string]bool)
	for _, m := range metrics {
		metricNames[m.GetName()] = true
	}

	for _, expected := range expectedMetrics {
		if !metricNames[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func TestHistogramMetrics(t *testing.T) {
	r := NewRegistry()

	r.HTTPRequestDuration.WithLabelValues("GET", "/api/productos", "200").Observe(0.1)
	r.HTTPRequestDuration.WithLabelValues("GET", "/api/productos", "200").Observe(0.2)
	r.HTTPRequestDuration.WithLabelValues("GET", "/api/productos", "200").Observe(0.15)

	histogram, err := r.HTTPRequestDuration.GetMetricWithLabelValues("GET", "/api/productos", "200")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}

	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}

	sum := metric.Histogram.GetSampleSum()
	if sum < 0.44 || sum > 0.46 {
		t.Errorf("Sample sum = %v, want ~0.45", sum)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordHTTPRequest("GET", "/test", "200", 10*time.Millisecond)
				r.RecordCartMutation("add")
			}
		}()
	}
	wg.Wait()

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/test", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
	if got := counterValue(t, r.CartMutationsTotal.WithLabelValues("add")); got != 1000 {
		t.Errorf("cart adds = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordRateLimit("api", true)
	r.RecordOrder("efectivo", 10)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, m := range metrics {
		name := m.GetName()
		if !strings.HasPrefix(name, "shop_") {
			t.Errorf("Metric %s does not have shop_ prefix", name)
		}
	}
}

func BenchmarkRecordHTTPRequest(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordHTTPRequest("GET", "/api/productos", "200", 10*time.Millisecond)
	}
}

func BenchmarkRecordRateLimit(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordRateLimit("api", i%10 == 0)
	}
}
