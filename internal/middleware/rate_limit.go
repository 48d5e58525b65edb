package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/BradenHooton/tradepost/internal/auth"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit is applied per IP to the public auth endpoints.
// It sits in front of the per-email login throttle and catches
// credential spraying across many addresses.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 20}
}

// DefaultWriteRateLimit is applied per user to authenticated writes
func DefaultWriteRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 30}
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// RateLimitByUserID limits authenticated requests per session user,
// falling back to the client IP when no session is present
func RateLimitByUserID(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(userKey),
		httprate.WithLimitHandler(limitExceeded),
	)
}

func userKey(r *http.Request) (string, error) {
	if claims := auth.GetUserFromContext(r); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID, nil
	}
	ip, err := httprate.KeyByRealIP(r)
	return "ip:" + ip, err
}
