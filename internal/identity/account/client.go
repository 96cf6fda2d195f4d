// Package account fetches the logged-in user's profile from the identity
// webservice.
package account

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"identitykit/internal/identity/models"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/circuit"
	"identitykit/pkg/platform/sentinel"
)

// profilePath is the account endpoint, relative to the webservice URL.
const profilePath = "v1/account"

// Client fetches account details with a bearer session token. A circuit
// breaker trips on consecutive network failures so unauthorized checks and
// refreshes fail fast during an outage instead of stacking timeouts.
type Client struct {
	httpClient *http.Client
	profileURL *url.URL
	tracer     trace.Tracer
	breaker    *circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing or proxies).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New creates a client for the webservice at serviceURL.
func New(serviceURL *url.URL, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		profileURL: serviceURL.JoinPath(profilePath),
		tracer:     otel.Tracer("identitykit/account"),
		breaker:    circuit.New("account", circuit.WithFailureThreshold(3)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAccount retrieves the account for the given session token.
//
// Error codes: CodeUnauthorized for HTTP 401/403 (the trigger for forced
// logout), CodeInvalidData for an undecodable payload, CodeTransport for
// network-level failures and unexpected statuses.
func (c *Client) FetchAccount(ctx context.Context, token string) (*models.Account, error) {
	ctx, span := c.tracer.Start(ctx, "account.fetch",
		trace.WithAttributes(attribute.String("http.host", c.profileURL.Host)))
	defer span.End()

	if c.breaker.IsOpen() {
		span.SetStatus(codes.Error, "circuit open")
		return nil, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeTransport, "account endpoint circuit open")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL.String(), nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build account request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.breaker.RecordFailure()
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "account request")
	}
	defer resp.Body.Close()

	// Any response at all means the endpoint is reachable.
	c.breaker.RecordSuccess()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		span.SetStatus(codes.Error, "unauthorized")
		return nil, dErrors.Newf(dErrors.CodeUnauthorized, "account endpoint returned %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		span.SetStatus(codes.Error, "unexpected status")
		return nil, dErrors.Newf(dErrors.CodeTransport, "account endpoint returned %d", resp.StatusCode)
	}

	acct, err := models.DecodeAccount(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return acct, nil
}
