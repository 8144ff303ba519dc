package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vedran77/projectdesk/internal/auth"
	"github.com/vedran77/projectdesk/internal/domain"
	"go.uber.org/zap"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// Auth verifies the bearer token on every request. Clients only ever see a
// plain 401; the failing check goes to the log.
func Auth(issuer *auth.Issuer, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				log.Debug("auth: missing bearer token", zap.String("path", r.URL.Path))
				writeStatus(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := issuer.Verify(tokenStr)
			if err != nil {
				log.Info("auth: token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				writeStatus(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Auth.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				writeStatus(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if claims.Role != role {
				writeStatus(w, http.StatusForbidden, "Forbidden resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims extracts the verified token claims from request context.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

// WithClaims is used by tests and by handlers mounted without Auth.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
