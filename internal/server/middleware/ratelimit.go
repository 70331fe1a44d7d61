package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// LoginRateLimit returns an HTTP middleware that allows attemptsPerMinute
// requests per client IP and answers the rest with a 429 JSON error.
// Mount it on the login route only.
func LoginRateLimit(attemptsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		attemptsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		}),
	)
}
