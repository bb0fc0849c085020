// redis — хранилище отзывов поверх Redis.
//
// Каждый отозванный jti хранится отдельным ключом prefix+jti с TTL, равным
// остаточному сроку жизни токена, поэтому записи удаляются самим Redis и
// периодическая очистка не нужна.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/storage"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix — префикс ключей, если в конфигурации он не задан.
const DefaultPrefix = "auth:revoked:"

// RevocationStore реализует storage.RevocationStorage.
type RevocationStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0)
// и проверяет соединение.
func New(ctx context.Context, redisURL, prefix string) (*RevocationStore, error) {
	const op = "storage.redis.New"

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(rdb *redis.Client, prefix string) *RevocationStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &RevocationStore{
		rdb:    rdb,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RevocationStore) key(tokenID string) string { return s.prefix + tokenID }

// IsRevoked сообщает, есть ли ключ отзыва для jti.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "storage.redis.IsRevoked"

	n, err := s.rdb.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// SaveRevocation атомарно (SET NX) создаёт ключ отзыва.
// Запись для уже истёкшего токена не сохраняется: такой токен отвергается по сроку.
func (s *RevocationStore) SaveRevocation(ctx context.Context, rec *models.RevocationRecord) (bool, error) {
	const op = "storage.redis.SaveRevocation"

	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return true, nil
	}

	ok, err := s.rdb.SetNX(ctx, s.key(rec.TokenID), rec.AccountID.String(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// DeleteExpiredRevocations ничего не делает: записи истекают по TTL ключа.
func (s *RevocationStore) DeleteExpiredRevocations(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// Ping проверяет доступность Redis.
func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close закрывает клиент Redis.
func (s *RevocationStore) Close() error { return s.rdb.Close() }

// Проверка на соответствие интерфейсу RevocationStorage.
var _ storage.RevocationStorage = (*RevocationStore)(nil)
