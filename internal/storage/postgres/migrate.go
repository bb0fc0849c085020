package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pribylovaa/authcore/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// gooseUp — точка подмены goose.UpContext в тестах.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate применяет встроенные миграции к БД, на которую смотрит пул.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const op = "storage.postgres.Migrate"

	if pool == nil {
		return fmt.Errorf("%s: nil pool", op)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
