package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/cluso-shop/pkg/guard"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
)

// PanicRecovery catches panics that escape the handler factory (routing,
// edge middleware) and answers with the standard 500 envelope. The stack is
// logged, never returned.
func PanicRecovery(log *seclog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic en handler HTTP", fmt.Errorf("%v", rec), seclog.Context{
					Endpoint: r.URL.Path,
					Method:   r.Method,
					Data:     map[string]any{"stack": string(debug.Stack())},
				})
				guard.WriteError(w, http.StatusInternalServerError, guard.MsgInternalError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
