package credential

import (
	"context"
	"sync"

	"identitykit/internal/identity/models"
	"identitykit/pkg/platform/sentinel"
)

// InMemoryStore keeps tokens in process memory. The default for tests and for
// hosts that do not want persistence across launches.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]string)}
}

func (s *InMemoryStore) Save(_ context.Context, identity models.ServiceIdentity, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[identity.Key()] = token
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, identity models.ServiceIdentity) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token, ok := s.tokens[identity.Key()]; ok {
		return token, nil
	}
	return "", sentinel.ErrNotFound
}

func (s *InMemoryStore) Erase(_ context.Context, identity models.ServiceIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, identity.Key())
	return nil
}
