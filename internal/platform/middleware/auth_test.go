package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"identitykit/internal/platform/logger"
)

type staticValidator struct {
	claims *TokenClaims
	err    error
}

func (v staticValidator) ValidateToken(string) (*TokenClaims, error) {
	return v.claims, v.err
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		if assert.NotNil(t, claims) {
			assert.Equal(t, "demo-1", claims.UserID)
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("passes validated claims to the handler", func(t *testing.T) {
		handler := RequireAuth(staticValidator{claims: &TokenClaims{UserID: "demo-1"}}, logger.Discard())(next)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/account", nil)
		req.Header.Set("Authorization", "Bearer token")

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing bearer token", func(t *testing.T) {
		handler := RequireAuth(staticValidator{}, logger.Discard())(next)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/account", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		handler := RequireAuth(staticValidator{err: errors.New("expired")}, logger.Discard())(next)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/account", nil)
		req.Header.Set("Authorization", "Bearer stale")

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
