package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dd0wney/cluso-shop/pkg/metrics"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

const suspiciousPrefix = "Actividad sospechosa: "

// securityMetricsHook counts security events into the Prometheus registry.
func securityMetricsHook(reg *metrics.Registry) seclog.Hook {
	return func(e seclog.Entry) {
		switch e.Event {
		case seclog.EventLoginFailure:
			reason, _ := e.Data["reason"].(string)
			if reason == "" {
				reason = "unknown"
			}
			reg.AuthFailuresTotal.WithLabelValues(reason).Inc()
		case seclog.EventUnauthorizedAccess, seclog.EventPermissionDenied:
			reg.SecurityUnauthorizedAccessTotal.Inc()
		case seclog.EventSuspiciousActivity:
			kind := strings.TrimPrefix(e.Message, suspiciousPrefix)
			reg.SecuritySuspiciousEventsTotal.WithLabelValues(kind).Inc()
		case seclog.EventSQLInjectionAttempt:
			reg.SecurityThreatsTotal.WithLabelValues("sql").Inc()
		case seclog.EventXSSAttempt:
			reg.SecurityThreatsTotal.WithLabelValues("xss").Inc()
		}
	}
}

// storeFailureHook counts 500s by route so a failing table shows up per endpoint.
func storeFailureHook(reg *metrics.Registry) func(*http.Request, error) {
	return func(r *http.Request, _ error) {
		op := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			op = rc.RoutePattern()
		}
		reg.RecordStoreError(r.Method + " " + op)
	}
}
