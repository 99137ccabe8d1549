package guard

import (
	"net/http"
	"sort"
)

// Endpoint pairs a pipeline configuration with its callback.
type Endpoint struct {
	Config Config
	Handle HandlerFunc
}

// Route dispatches by method to per-method endpoints, answering 405 with an
// Allow header for anything else. Each endpoint's AllowedMethods defaults to
// its own method.
func (f *Factory) Route(endpoints map[string]Endpoint) http.Handler {
	allowed := make([]string, 0, len(endpoints))
	handlers := make(map[string]http.Handler, len(endpoints))
	for method, ep := range endpoints {
		allowed = append(allowed, method)
		cfg := ep.Config
		if len(cfg.AllowedMethods) == 0 {
			cfg.AllowedMethods = []string{method}
		}
		handlers[method] = f.Handler(cfg, ep.Handle)
	}
	sort.Strings(allowed)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method]
		if !ok {
			f.observe(ReasonMethod)
			writeMethodNotAllowed(w, r.Method, allowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}
