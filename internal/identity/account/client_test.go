package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identitykit/internal/identity/models"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/sentinel"
)

func newClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return New(base, WithHTTPClient(srv.Client()))
}

func TestFetchAccount(t *testing.T) {
	t.Run("decodes the account payload", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/account", r.URL.Path)
			assert.Equal(t, "Bearer XYZ", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "1234",
				"publicUid": "pub-1234",
				"displayName": "Ada L.",
				"email": "a@b.com",
				"firstName": "Ada",
				"lastName": "Lovelace",
				"gender": "FEMALE",
				"birthdate": "1815-12-10",
				"verified": true
			}`))
		}))

		acct, err := client.FetchAccount(context.Background(), "XYZ")

		require.NoError(t, err)
		assert.Equal(t, "1234", acct.UID)
		assert.Equal(t, "a@b.com", acct.EmailAddress)
		assert.Equal(t, models.GenderFemale, acct.Gender)
		require.NotNil(t, acct.Birthdate)
		assert.Equal(t, "1815-12-10", acct.Birthdate.Format("2006-01-02"))
		assert.True(t, acct.Verified)
	})

	t.Run("401 maps to unauthorized", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.FetchAccount(context.Background(), "stale")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("403 maps to unauthorized", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		_, err := client.FetchAccount(context.Background(), "stale")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("5xx maps to transport", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := client.FetchAccount(context.Background(), "XYZ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
	})

	t.Run("malformed payload maps to invalid data", func(t *testing.T) {
		client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id": `))
		}))

		_, err := client.FetchAccount(context.Background(), "XYZ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidData))
	})

	t.Run("connection failure maps to transport", func(t *testing.T) {
		base, err := url.Parse("http://127.0.0.1:1")
		require.NoError(t, err)
		client := New(base)

		_, err = client.FetchAccount(context.Background(), "XYZ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
	})

	t.Run("repeated connection failures trip the circuit", func(t *testing.T) {
		base, err := url.Parse("http://127.0.0.1:1")
		require.NoError(t, err)
		client := New(base)

		for range 3 {
			_, err = client.FetchAccount(context.Background(), "XYZ")
			require.Error(t, err)
		}
		require.True(t, client.breaker.IsOpen())

		// The breaker now rejects without dialing.
		_, err = client.FetchAccount(context.Background(), "XYZ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}
