package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"postplanner-hq/quota/pkg/server/api"
)

// Throttle rejects requests with 429 once the server-wide token bucket of
// rps tokens per second and the given burst is empty.
func Throttle(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				_ = api.WriteError(w, "Server is busy, please retry", api.CodeThrottled)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
