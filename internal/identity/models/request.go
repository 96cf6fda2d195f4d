package models

import (
	"net/url"

	"github.com/google/uuid"

	dErrors "identitykit/pkg/domain-errors"
)

// AuthenticationRequest is an immutable description of one login attempt. It
// is built by the service and owned by the authentication session for the
// session's lifetime.
type AuthenticationRequest struct {
	// ID correlates session log lines and audit events for one attempt.
	ID uuid.UUID
	// TargetURL is opened in the external user agent.
	TargetURL *url.URL
	// RedirectURL is the callback the provider redirects to on completion.
	// Its scheme must differ from plain web schemes so the host can route it
	// back to the SDK (custom app scheme, or loopback http URL).
	RedirectURL *url.URL
	// EmailAddress optionally prefills the login form.
	EmailAddress string
}

// NewAuthenticationRequest builds a request for the given login page and
// redirect URL. The login page receives the redirect URL and the optional
// email address as query parameters.
func NewAuthenticationRequest(loginURL, redirectURL *url.URL, emailAddress string) (*AuthenticationRequest, error) {
	if redirectURL == nil || redirectURL.Scheme == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "redirect URL with scheme required")
	}
	if loginURL == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "login URL required")
	}

	target := *loginURL
	query := target.Query()
	query.Set("redirect", redirectURL.String())
	if emailAddress != "" {
		query.Set("email", emailAddress)
	}
	target.RawQuery = query.Encode()

	return &AuthenticationRequest{
		ID:           uuid.New(),
		TargetURL:    &target,
		RedirectURL:  redirectURL,
		EmailAddress: emailAddress,
	}, nil
}
