package service

import (
	"context"
	"net/url"

	"identitykit/internal/identity/models"
	"identitykit/internal/identity/session"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/audit"
)

// Login starts a browser-based login flow, optionally prefilling the form
// with emailAddress. It returns once presentation has started; the outcome
// arrives later through HandleRedirect, CancelLogin or FailLogin and is
// surfaced as a lifecycle event.
//
// Rejected with no state change while already logged in or while another
// flow is presenting.
func (s *Service) Login(ctx context.Context, emailAddress string) error {
	if s.IsLogged() {
		return dErrors.New(dErrors.CodeBadRequest, "already logged in")
	}
	if s.session != nil && s.session.State() == session.StatePresenting {
		return dErrors.New(dErrors.CodeBadRequest, "a login flow is already presenting")
	}

	request, err := models.NewAuthenticationRequest(s.websiteURL.JoinPath(loginPath), s.redirectURL, emailAddress)
	if err != nil {
		return err
	}

	sess := session.New(s.agent, s.logger)
	if err := sess.Present(ctx, request, s); err != nil {
		return err
	}
	s.session = sess

	s.logger.InfoContext(ctx, "login flow started",
		"request_id", request.ID.String(),
		"prefilled", emailAddress != "",
	)
	return nil
}

// HandleRedirect delivers a callback URL received by the host (URL-scheme
// open or loopback listener). Returns true when the URL matched the pending
// flow and was consumed; false lets the host keep probing other handlers.
func (s *Service) HandleRedirect(ctx context.Context, u *url.URL) bool {
	if s.session == nil {
		return false
	}
	return s.session.Resume(ctx, u)
}

// CancelLogin aborts the pending flow, typically when the user closed the
// user agent. Safe to call at any time; a no-op without a pending flow.
func (s *Service) CancelLogin(ctx context.Context) {
	if s.session == nil {
		return
	}
	s.session.Cancel(ctx)
}

// FailLogin resolves the pending flow with an external error, e.g. when the
// user agent reports a load failure. A no-op without a pending flow.
func (s *Service) FailLogin(ctx context.Context, err error) {
	if s.session == nil {
		return
	}
	s.session.Fail(ctx, err)
}

// AuthenticationSucceeded implements session.Delegate. It persists the token,
// broadcasts the login and fetches the account. The account fetch is
// observational: a failure leaves the token valid and is only logged.
func (s *Service) AuthenticationSucceeded(ctx context.Context, request *models.AuthenticationRequest, token string) {
	s.session = nil

	if err := s.creds.Save(ctx, s.identity, token); err != nil {
		// The in-memory session stays usable; only persistence across
		// relaunches is lost.
		s.logger.ErrorContext(ctx, "failed to persist session token",
			"error", err,
			"request_id", request.ID.String(),
		)
	}
	s.token = token

	s.metrics.IncrementLogins()
	s.emitAudit(ctx, audit.ActionLoginSucceeded, "")
	s.logger.InfoContext(ctx, "user logged in", "request_id", request.ID.String())
	s.notifier.Publish(Event{Kind: EventUserLoggedIn})

	account, err := s.accounts.FetchAccount(ctx, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "account fetch after login failed",
			"error", err,
			"request_id", request.ID.String(),
		)
		return
	}
	s.setAccount(account)
}

// AuthenticationCancelled implements session.Delegate.
func (s *Service) AuthenticationCancelled(ctx context.Context, request *models.AuthenticationRequest) {
	s.session = nil
	s.metrics.IncrementLoginCancellations()
	s.emitAudit(ctx, audit.ActionLoginCancelled, "")
	s.logger.InfoContext(ctx, "user cancelled login", "request_id", request.ID.String())
	s.notifier.Publish(Event{Kind: EventUserCancelledLogin})
}

// AuthenticationFailed implements session.Delegate.
func (s *Service) AuthenticationFailed(ctx context.Context, request *models.AuthenticationRequest, err error) {
	s.session = nil
	s.metrics.IncrementLoginFailures()
	s.emitAudit(ctx, audit.ActionLoginFailed, err.Error())
	s.logger.ErrorContext(ctx, "login failed",
		"error", err,
		"request_id", request.ID.String(),
	)
	s.notifier.Publish(Event{Kind: EventLoginFailed, Err: err})
}
