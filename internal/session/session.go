package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pixelvault/gamestore/internal/redisx"
)

// CookieName is the session cookie handed to browsers after login.
const CookieName = "gamestore_session"

var ErrNotFound = errors.New("session not found")

// Identity is what the rest of the service knows about the caller.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (id Identity) IsAdmin() bool { return id.Role == "admin" }

// Manager stores identities in Redis keyed by an opaque token.
type Manager struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewManager(rdb *redis.Client, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, ttl: ttl}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Create(ctx context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	b, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := m.rdb.Set(ctx, m.key(token), b, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (m *Manager) Get(ctx context.Context, token string) (Identity, error) {
	var id Identity
	b, err := m.rdb.Get(ctx, m.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return id, ErrNotFound
	}
	if err != nil {
		return id, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(b, &id); err != nil {
		return id, fmt.Errorf("decode session: %w", err)
	}
	return id, nil
}

func (m *Manager) Destroy(ctx context.Context, token string) error {
	return m.rdb.Del(ctx, m.key(token)).Err()
}

func (m *Manager) key(token string) string {
	return fmt.Sprintf(redisx.KeySession, token)
}
