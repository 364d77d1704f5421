// Package sessions keeps the logout denylist: session token ids (jti) that
// were revoked before their expiry.
package sessions

import (
	"context"
	"sync"
	"time"
)

type Revoker interface {
	// Revoke denies jti until the given time (the token's own expiry).
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevoker is a process-local denylist, used when no Redis URL is
// configured. Revocations do not survive a restart.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune()
	if until.After(m.now()) {
		m.revoked[jti] = until
	}
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}

// prune drops expired entries; callers hold mu.
func (m *MemoryRevoker) prune() {
	now := m.now()
	for k, until := range m.revoked {
		if !until.After(now) {
			delete(m.revoked, k)
		}
	}
}
