// Package audit captures identity lifecycle events for host applications
// that need an operational trail of logins and logouts. Events are
// transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened.
type Action string

const (
	ActionLoginSucceeded        Action = "login_succeeded"
	ActionLoginCancelled        Action = "login_cancelled"
	ActionLoginFailed           Action = "login_failed"
	ActionLogout                Action = "logout"
	ActionUnauthorizedConfirmed Action = "unauthorized_confirmed"
	ActionAccountRefreshed      Action = "account_refreshed"
)

// Event is emitted from the identity service to capture key actions.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	// ServiceURL identifies which identity service instance emitted the
	// event when several share a sink.
	ServiceURL string `json:"serviceUrl"`
	// UserID is the account UID when known; logins resolve before the
	// account is fetched, so it may be empty.
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// NewEvent builds an event with a fresh ID and the current time.
func NewEvent(action Action, serviceURL string) Event {
	return Event{
		ID:         uuid.New(),
		Action:     action,
		Timestamp:  time.Now().UTC(),
		ServiceURL: serviceURL,
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher emits audit events to an external sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// ChanPublisher hands events to a channel, typically drained by a
// worker.Worker appending to a Store.
type ChanPublisher chan Event

func (p ChanPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p <- event:
		return nil
	}
}
