package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shoply-app/shoply-backend/pkg/config"
	redisclient "github.com/shoply-app/shoply-backend/pkg/redis"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Manager tracks which jti values still have a live session. The refresh
// JWT itself is stored so a presented token can be compared against the
// exact one issued for that jti.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   ttl,
	}, nil
}

// Store records the refresh token issued under the given access ID.
func (m *Manager) Store(ctx context.Context, accessID, refreshToken string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("refresh token is required")
	}
	return m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), refreshToken, m.ttl)
}

// Validate checks the provided refresh token against the stored one.
func (m *Manager) Validate(ctx context.Context, accessID, provided string) error {
	if strings.TrimSpace(accessID) == "" || strings.TrimSpace(provided) == "" {
		return ErrInvalidRefreshToken
	}

	stored, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	if err != nil {
		return wrapNotFound(err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return ErrInvalidRefreshToken
	}
	return nil
}

// Rotate validates the presented token, revokes the old session, and
// records the replacement token under the new access ID.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided, newAccessID, newRefreshToken string) error {
	if err := m.Validate(ctx, oldAccessID, provided); err != nil {
		return err
	}
	if err := m.Store(ctx, newAccessID, newRefreshToken); err != nil {
		return err
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(oldAccessID))
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the provided access ID still has an active session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	key := m.keyer.AccessSessionKey(accessID)
	if _, err := m.store.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
