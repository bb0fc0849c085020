// postgres реализует хранилища учётных записей и отзывов поверх PostgreSQL (pgx/v5).
package postgres

import (
	"context"
	"fmt"

	"github.com/pribylovaa/authcore/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB — подмножество *pgxpool.Pool, используемое хранилищем.
// Позволяет подставлять pgxmock в unit-тестах.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Storage struct {
	db   DB
	pool *pgxpool.Pool
}

// New создает новое подключение к PostgreSQL.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: pool, pool: pool}, nil
}

// NewWithDB оборачивает готовое подключение (в т.ч. pgxmock).
func NewWithDB(db DB) *Storage {
	s := &Storage{db: db}
	if pool, ok := db.(*pgxpool.Pool); ok {
		s.pool = pool
	}

	return s
}

// Pool возвращает пул соединений (nil, если хранилище построено поверх mock).
func (s *Storage) Pool() *pgxpool.Pool { return s.pool }

// Ping проверяет доступность БД.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.db.Close()
}

// Проверка на соответствие интерфейсам хранилищ.
var (
	_ storage.AccountStorage    = (*Storage)(nil)
	_ storage.RevocationStorage = (*Storage)(nil)
)
