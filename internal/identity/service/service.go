// Package service is the top-level identity façade. It owns zero-or-one
// authentication session, the persisted session token and the cached account,
// and broadcasts lifecycle events to subscribers.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"identitykit/internal/identity/metrics"
	"identitykit/internal/identity/models"
	"identitykit/internal/identity/session"
	dErrors "identitykit/pkg/domain-errors"
	"identitykit/pkg/platform/audit"
	"identitykit/pkg/platform/sentinel"
)

// CredentialStore persists the session token keyed by service identity.
type CredentialStore interface {
	Save(ctx context.Context, identity models.ServiceIdentity, token string) error
	Load(ctx context.Context, identity models.ServiceIdentity) (string, error)
	Erase(ctx context.Context, identity models.ServiceIdentity) error
}

// AccountFetcher retrieves account details for a bearer session token.
type AccountFetcher interface {
	FetchAccount(ctx context.Context, token string) (*models.Account, error)
}

// Config captures the immutable identity of a service instance.
type Config struct {
	// ServiceURL is the base URL of the identity webservice.
	ServiceURL string
	// WebsiteURL is the base URL of the login pages opened in the external
	// user agent. Defaults to ServiceURL.
	WebsiteURL string
	// RedirectURL is the callback URL the provider redirects to. Its scheme
	// must be routable back to the host (custom app scheme, or a loopback
	// http URL).
	RedirectURL string
	// AccessGroup namespaces the persisted credential.
	AccessGroup string
}

// Deps are the external collaborators of a service instance.
type Deps struct {
	Credentials CredentialStore
	Accounts    AccountFetcher
	UserAgent   session.UserAgent
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics receiver. All recording is nil-safe.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditor sets an optional audit sink for lifecycle events.
func WithAuditor(auditor audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

// loginPath is the login page, relative to the website URL.
const loginPath = "login"

// Service drives the login flow and owns the logged-in state.
//
// A Service expects cooperative single-goroutine use: all public operations
// are to be called from, and the session's resolution delivered on, the same
// goroutine (typically the host's event loop). The single-active-session
// invariant is enforced by a presence check, not a lock.
type Service struct {
	serviceURL  *url.URL
	websiteURL  *url.URL
	redirectURL *url.URL
	identity    models.ServiceIdentity

	creds    CredentialStore
	accounts AccountFetcher
	agent    session.UserAgent
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  audit.Publisher
	notifier *Notifier

	session *session.Session
	token   string
	account *models.Account
	// unauthorizedCheck guards against overlapping confirmation flows.
	unauthorizedCheck bool
}

// New creates a service and restores any previously persisted token, so a
// relaunched host is logged in without a new flow.
func New(ctx context.Context, cfg Config, deps Deps, opts ...Option) (*Service, error) {
	serviceURL, err := url.Parse(cfg.ServiceURL)
	if err != nil || serviceURL.Scheme == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "valid service URL required")
	}
	websiteURL := serviceURL
	if cfg.WebsiteURL != "" {
		websiteURL, err = url.Parse(cfg.WebsiteURL)
		if err != nil || websiteURL.Scheme == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "valid website URL required")
		}
	}
	redirectURL, err := url.Parse(cfg.RedirectURL)
	if err != nil || redirectURL.Scheme == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "redirect URL with scheme required")
	}
	if deps.Credentials == nil || deps.Accounts == nil || deps.UserAgent == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credentials, accounts and user agent required")
	}

	s := &Service{
		serviceURL:  serviceURL,
		websiteURL:  websiteURL,
		redirectURL: redirectURL,
		identity: models.ServiceIdentity{
			ServiceURL:  serviceURL.String(),
			AccessGroup: cfg.AccessGroup,
		},
		creds:    deps.Credentials,
		accounts: deps.Accounts,
		agent:    deps.UserAgent,
		logger:   slog.New(slog.DiscardHandler),
		notifier: NewNotifier(),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := s.creds.Load(ctx, s.identity)
	switch {
	case err == nil:
		s.token = token
	case errors.Is(err, sentinel.ErrNotFound):
		// First launch, nothing persisted.
	default:
		s.logger.WarnContext(ctx, "failed to restore persisted token", "error", err)
	}

	return s, nil
}

// Subscribe registers a lifecycle event callback; see EventKind for the
// catalogue. Returns an unsubscribe function.
func (s *Service) Subscribe(kind EventKind, fn func(Event)) func() {
	return s.notifier.Subscribe(kind, fn)
}

// IsLogged reports whether a session token is held. The account may lag
// behind while its fetch is in flight.
func (s *Service) IsLogged() bool {
	return s.token != ""
}

// SessionToken returns the logged-in token, or empty.
func (s *Service) SessionToken() string {
	return s.token
}

// Account returns the cached account, or nil.
func (s *Service) Account() *models.Account {
	return s.account
}

// EmailAddress returns the logged-in email address, or empty.
func (s *Service) EmailAddress() string {
	if s.account == nil {
		return ""
	}
	return s.account.EmailAddress
}

// DisplayName returns the logged-in display name, or empty.
func (s *Service) DisplayName() string {
	if s.account == nil {
		return ""
	}
	return s.account.DisplayName
}

// UserID returns the logged-in user id, or empty.
func (s *Service) UserID() string {
	if s.account == nil {
		return ""
	}
	return s.account.UID
}

// setAccount replaces the cached account wholesale and broadcasts the update.
func (s *Service) setAccount(account *models.Account) {
	previous := s.account
	s.account = account
	s.metrics.IncrementAccountRefreshes()
	s.notifier.Publish(Event{
		Kind:            EventAccountUpdated,
		Account:         account,
		PreviousAccount: previous,
	})
}

// emitAudit sends an audit event when an auditor is configured. Audit
// failures are logged, never propagated into the login flow.
func (s *Service) emitAudit(ctx context.Context, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.NewEvent(action, s.identity.ServiceURL)
	event.Reason = reason
	if s.account != nil {
		event.UserID = s.account.UID
		event.Email = s.account.EmailAddress
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", string(action),
		)
	}
}

// Process-wide convenience registry. Purely optional: the SDK itself always
// passes explicit instances.
var (
	currentMu sync.RWMutex
	current   *Service
)

// SetCurrent registers the host's shared service instance; pass nil to clear.
func SetCurrent(s *Service) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = s
}

// Current returns the registered shared instance, or nil.
func Current() *Service {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}
