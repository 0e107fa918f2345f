package jwt

import (
	"context"
	"sync"
	"time"
)

// RevocationStore remembers logged-out tokens until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryRevocationStore keeps revoked tokens in process. Entries are pruned
// once their expiry has passed.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore(now func() time.Time) *MemoryRevocationStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     now,
	}
}

func (m *MemoryRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for t, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, t)
		}
	}
	m.revoked[token] = expiresAt
	return nil
}

func (m *MemoryRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, revoked := m.revoked[token]
	return revoked, nil
}
