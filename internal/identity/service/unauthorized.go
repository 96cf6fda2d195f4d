package service

import (
	"context"

	"identitykit/internal/identity/models"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/audit"
)

// ReportUnauthorization re-validates the session after a third party reported
// the token as rejected. It refetches the account with the current token: a
// confirmed 401/403 forces a logout with unauthorized=true, a success updates
// the cached account, and a transport failure is inconclusive and leaves
// state untouched so a transient outage never logs a user out spuriously.
//
// A no-op when not logged in or while a previous check is still in flight.
func (s *Service) ReportUnauthorization(ctx context.Context) {
	if !s.IsLogged() || s.unauthorizedCheck {
		return
	}
	s.unauthorizedCheck = true
	defer func() { s.unauthorizedCheck = false }()

	account, err := s.accounts.FetchAccount(ctx, s.token)
	switch {
	case err == nil:
		// The token works; the report was stale or spurious.
		s.setAccount(account)
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		s.metrics.IncrementUnauthorizedConfirmed()
		s.emitAudit(ctx, audit.ActionUnauthorizedConfirmed, "")
		s.logger.WarnContext(ctx, "session token confirmed unauthorized")
		s.logout(ctx, true, false, logoutReasonUnauthorized)
	default:
		s.metrics.IncrementUnauthorizedInconclusive()
		s.logger.WarnContext(ctx, "unauthorized check inconclusive", "error", err)
	}
}

// RefreshAccount refetches and replaces the cached account on demand.
// Failures, including unauthorized responses, are returned to the caller and
// never mutate the session; only ReportUnauthorization forces a logout.
func (s *Service) RefreshAccount(ctx context.Context) (*models.Account, error) {
	if !s.IsLogged() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "not logged in")
	}
	account, err := s.accounts.FetchAccount(ctx, s.token)
	if err != nil {
		return nil, err
	}
	s.setAccount(account)
	s.emitAudit(ctx, audit.ActionAccountRefreshed, "")
	return account, nil
}
