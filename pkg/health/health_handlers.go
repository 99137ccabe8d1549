package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// handler serves one probe. strict probes answer 503 for anything but
// healthy; the full report only does so when unhealthy.
func (hc *HealthChecker) handler(run func(context.Context) Response, strict bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := run(r.Context())

		code := http.StatusOK
		if resp.Status == StatusUnhealthy || (strict && resp.Status != StatusHealthy) {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HTTPHandler serves the full report; degraded still answers 200.
func (hc *HealthChecker) HTTPHandler() http.HandlerFunc {
	return hc.handler(hc.Check, false)
}

func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return hc.handler(hc.CheckReadiness, true)
}

func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return hc.handler(hc.CheckLiveness, true)
}
