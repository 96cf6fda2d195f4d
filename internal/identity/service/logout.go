package service

import (
	"context"

	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/audit"
)

// logout reasons, used as the metrics label and audit reason.
const (
	logoutReasonUser         = "user"
	logoutReasonUnauthorized = "unauthorized"
)

// Logout ends the current session: the token is erased from the credential
// store, the cached account is cleared and a logout event with
// unauthorized=false is broadcast. Rejected when not logged in.
func (s *Service) Logout(ctx context.Context) error {
	if !s.IsLogged() {
		return dErrors.New(dErrors.CodeBadRequest, "not logged in")
	}
	s.logout(ctx, false, false, logoutReasonUser)
	return nil
}

// logout commits the logout unconditionally. The audit event is emitted
// before the account is cleared so it still carries the user identity.
func (s *Service) logout(ctx context.Context, unauthorized, deleted bool, reason string) {
	if err := s.creds.Erase(ctx, s.identity); err != nil {
		// The in-memory state is cleared regardless; a stale persisted
		// token will fail its first account fetch after relaunch.
		s.logger.ErrorContext(ctx, "failed to erase persisted token", "error", err)
	}

	s.emitAudit(ctx, audit.ActionLogout, reason)

	s.token = ""
	s.account = nil

	s.metrics.IncrementLogouts(reason)
	s.logger.InfoContext(ctx, "user logged out",
		"unauthorized", unauthorized,
		"deleted", deleted,
	)
	s.notifier.Publish(Event{
		Kind:         EventUserLoggedOut,
		Unauthorized: unauthorized,
		Deleted:      deleted,
	})
}
