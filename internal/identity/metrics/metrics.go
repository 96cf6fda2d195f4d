package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for identity lifecycle operations.
// The service takes an optional *Metrics; all increment helpers are nil-safe.
type Metrics struct {
	Logins                   prometheus.Counter
	LoginCancellations       prometheus.Counter
	LoginFailures            prometheus.Counter
	Logouts                  *prometheus.CounterVec
	AccountRefreshes         prometheus.Counter
	UnauthorizedConfirmed    prometheus.Counter
	UnauthorizedInconclusive prometheus.Counter
}

// New creates and registers all identity metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identitykit_logins_total",
			Help: "Total number of successful logins",
		}),
		LoginCancellations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identitykit_login_cancellations_total",
			Help: "Total number of logins cancelled by the user",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identitykit_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		Logouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "identitykit_logouts_total",
			Help: "Total number of logouts by reason",
		}, []string{"reason"}),
		AccountRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identitykit_account_refreshes_total",
			Help: "Total number of successful account refetches",
		}),
		UnauthorizedConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identitykit_unauthorized_confirmed_total",
			Help: "Total number of unauthorized reports confirmed by the provider",
		}),
		UnauthorizedInconclusive: promauto.NewCounter(prometheus.CounterOpts{
			Name: "identitykit_unauthorized_inconclusive_total",
			Help: "Total number of unauthorized reports dropped as inconclusive",
		}),
	}
}

func (m *Metrics) IncrementLogins() {
	if m != nil {
		m.Logins.Inc()
	}
}

func (m *Metrics) IncrementLoginCancellations() {
	if m != nil {
		m.LoginCancellations.Inc()
	}
}

func (m *Metrics) IncrementLoginFailures() {
	if m != nil {
		m.LoginFailures.Inc()
	}
}

// IncrementLogouts records a logout with its reason ("user" or "unauthorized").
func (m *Metrics) IncrementLogouts(reason string) {
	if m != nil {
		m.Logouts.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncrementAccountRefreshes() {
	if m != nil {
		m.AccountRefreshes.Inc()
	}
}

func (m *Metrics) IncrementUnauthorizedConfirmed() {
	if m != nil {
		m.UnauthorizedConfirmed.Inc()
	}
}

func (m *Metrics) IncrementUnauthorizedInconclusive() {
	if m != nil {
		m.UnauthorizedInconclusive.Inc()
	}
}
