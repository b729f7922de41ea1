package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*AppSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewAppSessionStore(rdb, time.Hour), mr
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "sid-1", "u-1", "alice", "client"))

	as, err := s.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", as.UserID)
	assert.Equal(t, "alice", as.Username)
	assert.Equal(t, "client", as.Role)
	assert.Greater(t, as.ExpiresAt, as.IssuedAt)

	_, err = s.Get(ctx, "no-such-sid")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestSessionDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "sid-1", "u-1", "alice", "client"))
	require.NoError(t, s.Delete(ctx, "sid-1"))

	_, err := s.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, redis.Nil)
	// 用户会话集合里也要摘掉
	assert.False(t, mr.Exists("app:user_sessions:u-1"))
}

func TestRevokeAllForUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "sid-1", "u-1", "alice", "client"))
	require.NoError(t, s.Create(ctx, "sid-2", "u-1", "alice", "client"))
	require.NoError(t, s.Create(ctx, "sid-other", "u-2", "bob", "client"))

	require.NoError(t, s.RevokeAllForUser(ctx, "u-1"))

	_, err := s.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, redis.Nil)
	_, err = s.Get(ctx, "sid-2")
	assert.ErrorIs(t, err, redis.Nil)

	// 别人的会话不受影响
	as, err := s.Get(ctx, "sid-other")
	require.NoError(t, err)
	assert.Equal(t, "u-2", as.UserID)
}

func TestSessionExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "sid-1", "u-1", "alice", "client"))
	mr.FastForward(2 * time.Hour)

	_, err := s.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, redis.Nil)
}
