// Package session owns a single in-flight authentication attempt. It mediates
// between the external user agent showing the login page and the delegate
// that consumes the outcome, and guarantees the outcome is delivered exactly
// once.
package session

import (
	"context"
	"log/slog"
	"net/url"

	"identitykit/internal/identity/models"
	"identitykit/internal/identity/redirect"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/sentinel"
)

// TokenParam is the query parameter carrying the session token on the
// redirect URL.
const TokenParam = "token"

// State is the lifecycle state of a session.
type State int

const (
	// StateIdle means no request is being served.
	StateIdle State = iota
	// StatePresenting means the user agent is open and the session awaits
	// an external callback.
	StatePresenting
	// StateResolved is terminal. Further Resume/Cancel/Fail calls are no-ops.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresenting:
		return "presenting"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Outcome is the terminal resolution of a session.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeCancelled
	OutcomeFailed
)

// UserAgent is the external surface the login page is shown in. Open returns
// an error when the surface cannot be presented; Dismiss has no effect when
// nothing is presented.
type UserAgent interface {
	Open(ctx context.Context, u *url.URL) error
	Dismiss(ctx context.Context)
}

// Delegate receives the session outcome. Exactly one of the three methods is
// invoked, at most once per session.
type Delegate interface {
	AuthenticationSucceeded(ctx context.Context, request *models.AuthenticationRequest, token string)
	AuthenticationCancelled(ctx context.Context, request *models.AuthenticationRequest)
	AuthenticationFailed(ctx context.Context, request *models.AuthenticationRequest, err error)
}

// Session tracks at most one authentication attempt through
// Idle -> Presenting -> Resolved. It is owned exclusively by the identity
// service and, like the service, expects cooperative single-goroutine use:
// exactly-once resolution is enforced by the terminal state check, not a lock.
type Session struct {
	agent  UserAgent
	logger *slog.Logger

	state   State
	outcome Outcome
	request *models.AuthenticationRequest
	// delegate is retained only while presenting; released on resolution
	// together with the request.
	delegate Delegate
}

// New creates an idle session using the given user agent.
func New(agent UserAgent, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{agent: agent, logger: logger}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Outcome returns the terminal outcome, or OutcomeNone before resolution.
func (s *Session) Outcome() Outcome {
	return s.outcome
}

// Request returns the request being served, or nil when idle or resolved.
func (s *Session) Request() *models.AuthenticationRequest {
	return s.request
}

// Present opens the request's target URL in the user agent. Valid only from
// Idle. If the user agent cannot be opened the session stays Idle and a
// start-failed error is returned; the delegate is not invoked.
func (s *Session) Present(ctx context.Context, request *models.AuthenticationRequest, delegate Delegate) error {
	if s.state != StateIdle {
		return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeBadRequest, "session already presenting")
	}
	if request == nil || delegate == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request and delegate required")
	}

	if err := s.agent.Open(ctx, request.TargetURL); err != nil {
		s.logger.ErrorContext(ctx, "failed to open external user agent",
			"error", err,
			"request_id", request.ID.String(),
		)
		return dErrors.Wrap(err, dErrors.CodeStartFailed, "open external user agent")
	}

	s.state = StatePresenting
	s.request = request
	s.delegate = delegate
	s.logger.DebugContext(ctx, "authentication presented",
		"request_id", request.ID.String(),
		"target_host", request.TargetURL.Host,
	)
	return nil
}

// Resume delivers a callback URL. Returns false when the URL does not match
// the expected redirect URL, leaving the session Presenting so the host can
// probe further URLs. On a match the token is extracted, the session resolves
// and the delegate's success (or, for a malformed callback, failure) path is
// invoked exactly once. No-op returning false once resolved or while idle.
func (s *Session) Resume(ctx context.Context, u *url.URL) bool {
	if s.state != StatePresenting {
		return false
	}
	if !redirect.Matches(u, s.request.RedirectURL) {
		return false
	}

	token, ok := redirect.QueryParams(u)[TokenParam]
	if !ok || token == "" {
		request, delegate := s.resolve(ctx, OutcomeFailed)
		delegate.AuthenticationFailed(ctx, request,
			dErrors.New(dErrors.CodeInvalidData, "redirect URL carries no token"))
		return true
	}

	request, delegate := s.resolve(ctx, OutcomeSuccess)
	delegate.AuthenticationSucceeded(ctx, request, token)
	return true
}

// Cancel aborts the attempt. Valid from Presenting; a no-op when idle or
// already resolved, so it is safe to call when a resolution raced ahead.
func (s *Session) Cancel(ctx context.Context) {
	if s.state != StatePresenting {
		return
	}
	request, delegate := s.resolve(ctx, OutcomeCancelled)
	delegate.AuthenticationCancelled(ctx, request)
}

// Fail resolves the attempt with an external error, e.g. when the user agent
// reports a load failure. No-op when idle or already resolved.
func (s *Session) Fail(ctx context.Context, err error) {
	if s.state != StatePresenting {
		return
	}
	request, delegate := s.resolve(ctx, OutcomeFailed)
	delegate.AuthenticationFailed(ctx, request, err)
}

// resolve commits the terminal transition, dismisses the user agent and
// releases the request and delegate. It must run before the delegate is
// invoked so a reentrant Resume/Cancel/Fail from the delegate sees the
// terminal state.
func (s *Session) resolve(ctx context.Context, outcome Outcome) (*models.AuthenticationRequest, Delegate) {
	request := s.request
	delegate := s.delegate
	s.state = StateResolved
	s.outcome = outcome
	s.request = nil
	s.delegate = nil
	s.agent.Dismiss(ctx)
	s.logger.DebugContext(ctx, "authentication resolved",
		"request_id", request.ID.String(),
		"outcome", outcomeName(outcome),
	)
	return request, delegate
}

func outcomeName(o Outcome) string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}
