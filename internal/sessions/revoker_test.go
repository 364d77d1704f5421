package sessions

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryRevoker()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "stale", now.Add(-time.Minute)))

	revoked, err := m.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = m.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens are not stored")

	now = now.Add(2 * time.Hour)
	revoked, err = m.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.False(t, revoked, "entries lapse with the token")
}

func TestRedisRevoker(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := NewRedisRevoker(ctx, url)
	if err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	defer r.Close()

	jti := uuid.NewString()
	revoked, err := r.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, jti, time.Now().Add(time.Minute)))
	revoked, err = r.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)
}
