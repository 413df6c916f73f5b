package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/transport"
)

// RecoveryMiddleware turns a panic into a 500 and logs the stack.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"trace_id", errors.TraceIDFromContext(r.Context()),
						"stack", string(debug.Stack()))

					base.HandleError(w, errors.NewInternalError("Internal server error", nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
