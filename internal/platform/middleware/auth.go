// Package middleware holds HTTP middleware for token-protected endpoints,
// such as the demo provider's account endpoint.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/httputil"
)

// TokenValidator validates a bearer session token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims are the validated claims handed to downstream handlers.
type TokenClaims struct {
	UserID string
	Email  string
}

type contextKeyClaims struct{}

// ClaimsFrom retrieves the validated claims from the request context, or nil
// outside a RequireAuth-wrapped handler.
func ClaimsFrom(ctx context.Context) *TokenClaims {
	claims, _ := ctx.Value(contextKeyClaims{}).(*TokenClaims)
	return claims
}

// RequireAuth rejects requests without a valid bearer token and stores the
// validated claims in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access, missing bearer token")
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access, invalid token", "error", err)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyClaims{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
