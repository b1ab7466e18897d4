package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Repository persists one serialized cart per user. Load returns (nil, nil) when the user has no cart.
type Repository interface {
	Load(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Store(ctx context.Context, userID uuid.UUID, data []byte) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Key is the storage key of a user's cart.
func Key(userID uuid.UUID) string {
	return "cart_" + userID.String()
}

// MemoryRepository keeps carts in process. Used by tests and single-instance dev runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: map[string][]byte{}}
}

func (m *MemoryRepository) Load(_ context.Context, userID uuid.UUID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.carts[Key(userID)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (m *MemoryRepository) Store(_ context.Context, userID uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[Key(userID)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, Key(userID))
	return nil
}

// RedisRepository stores carts in Redis next to the sessions. A zero TTL keeps carts until cleared.
type RedisRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func (r *RedisRepository) Load(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	b, err := r.RDB.Get(ctx, Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return b, nil
}

func (r *RedisRepository) Store(ctx context.Context, userID uuid.UUID, data []byte) error {
	if err := r.RDB.Set(ctx, Key(userID), data, r.TTL).Err(); err != nil {
		return fmt.Errorf("store cart: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.RDB.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
