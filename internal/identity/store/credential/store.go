// Package credential persists session tokens keyed by service identity.
// Backends stand in for the platform credential store of the host OS; every
// implementation keeps at most one token per identity.
package credential

import (
	"context"

	"identitykit/internal/identity/models"
)

// Store persists, retrieves and erases session tokens. Implementations are
// safe for concurrent use since several service instances may share one
// backend under different identities.
type Store interface {
	// Save persists the token for the identity, replacing any previous one.
	Save(ctx context.Context, identity models.ServiceIdentity, token string) error
	// Load returns the persisted token, or sentinel.ErrNotFound.
	Load(ctx context.Context, identity models.ServiceIdentity) (string, error)
	// Erase removes the token. Erasing an absent token is not an error.
	Erase(ctx context.Context, identity models.ServiceIdentity) error
}
