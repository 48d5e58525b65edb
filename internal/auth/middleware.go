package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/tradepost/internal/models"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
)

type contextKey string

// UserContextKey is the key for storing session claims in context
const UserContextKey contextKey = "user"

// TokenRevocationChecker reports whether a token, or every session of its user, was revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti, userID string) (bool, error)
}

// RevocationConfig holds configuration for token revocation behavior
type RevocationConfig struct {
	FailClosed bool // deny access when the revocation store cannot be reached
}

// extractToken reads the session cookie, falling back to a Bearer header
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SessionMiddleware validates the session token and injects its claims into context.
// A missing token is 401; a token that does not verify or was revoked is 403.
func SessionMiddleware(tm *TokenManager, checker TokenRevocationChecker, config RevocationConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, status := authenticate(r, tm, checker, config, logger)
			switch status {
			case http.StatusOK:
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			case http.StatusUnauthorized:
				pkghttp.WriteUnauthorized(w, "Unauthorized")
			case http.StatusServiceUnavailable:
				pkghttp.WriteServiceUnavailable(w, "Unable to verify session")
			default:
				pkghttp.WriteForbidden(w, "Forbidden")
			}
		})
	}
}

// OptionalSession injects the claims of a valid, unrevoked session and
// otherwise passes the request through without them.
func OptionalSession(tm *TokenManager, checker TokenRevocationChecker, config RevocationConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, status := authenticate(r, tm, checker, config, logger); status == http.StatusOK {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate returns the session claims with 200, or the status to reject the request with
func authenticate(r *http.Request, tm *TokenManager, checker TokenRevocationChecker, config RevocationConfig, logger *slog.Logger) (*models.TokenClaims, int) {
	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, http.StatusUnauthorized
	}

	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return nil, http.StatusForbidden
	}

	if checker == nil {
		return claims, http.StatusOK
	}

	revoked, err := checker.IsTokenRevoked(r.Context(), claims.ID, claims.UserID)
	if err != nil {
		logger.Error("token revocation check failed",
			slog.String("user_id", claims.UserID),
			slog.Any("error", err))
		if config.FailClosed {
			return nil, http.StatusServiceUnavailable
		}
	}
	if revoked {
		return nil, http.StatusForbidden
	}

	return claims, http.StatusOK
}

// WithClaims returns a context carrying the session claims
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts session claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
