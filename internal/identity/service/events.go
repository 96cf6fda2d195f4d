package service

import (
	"sync"

	"identitykit/internal/identity/models"
)

// EventKind identifies a lifecycle broadcast.
type EventKind int

const (
	// EventUserLoggedIn fires once per successful login, before the
	// account has been fetched.
	EventUserLoggedIn EventKind = iota
	// EventUserCancelledLogin fires when the user aborts the flow.
	EventUserCancelledLogin
	// EventLoginFailed fires when the flow resolves with an error; Err
	// carries the cause.
	EventLoginFailed
	// EventUserLoggedOut fires on logout; Unauthorized distinguishes a
	// forced logout after a confirmed token rejection, Deleted an account
	// deletion.
	EventUserLoggedOut
	// EventAccountUpdated fires whenever the cached account is replaced;
	// Account is the new value, PreviousAccount the one it replaced.
	EventAccountUpdated
)

// Event is the payload delivered to subscribers. Only the fields relevant to
// the kind are populated.
type Event struct {
	Kind            EventKind
	Err             error
	Unauthorized    bool
	Deleted         bool
	Account         *models.Account
	PreviousAccount *models.Account
}

// Notifier maps event kinds to subscriber callbacks, replacing the broadcast
// notification bus of a platform SDK with explicit subscriptions.
type Notifier struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[EventKind]map[int]func(Event)
}

func NewNotifier() *Notifier {
	return &Notifier{subscribers: make(map[EventKind]map[int]func(Event))}
}

// Subscribe registers fn for the given kind and returns an unsubscribe
// function.
func (n *Notifier) Subscribe(kind EventKind, fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscribers[kind] == nil {
		n.subscribers[kind] = make(map[int]func(Event))
	}
	id := n.nextID
	n.nextID++
	n.subscribers[kind][id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subscribers[kind], id)
	}
}

// Publish delivers the event to every subscriber of its kind, synchronously
// on the calling goroutine.
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subscribers[event.Kind]))
	for _, fn := range n.subscribers[event.Kind] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(event)
	}
}
