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

func newManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewManager(rdb, 20*time.Minute), mr
}

func TestCreateAndGet(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	want := Identity{UserID: 42, Username: "sam", Email: "sam@example.com", Role: "user"}
	token, err := m.Create(ctx, want)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := m.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, got.IsAdmin())
}

func TestGetUnknownToken(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroy(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, Identity{UserID: 1, Role: "admin"})
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, token))
	_, err = m.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiry(t *testing.T) {
	m, mr := newManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, Identity{UserID: 7, Role: "user"})
	require.NoError(t, err)

	mr.FastForward(21 * time.Minute)

	_, err = m.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}
