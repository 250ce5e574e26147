package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"postplanner-hq/quota/pkg/server/api"
)

// Recovery recovers from panics in handlers and responds with a 500 error.
// The panic and its stack are logged; neither is exposed to the client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					_ = api.WriteError(w, "An internal error occurred. Please try again later.", api.CodeInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
