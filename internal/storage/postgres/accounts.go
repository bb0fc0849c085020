package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `id, email, username, password_hash, is_active, created_at, updated_at`

// CreateAccount сохраняет новую учётную запись и возвращает её в сохранённом виде.
// Занятый email — storage.ErrAlreadyExists.
func (s *Storage) CreateAccount(ctx context.Context, acc *models.Account) (*models.Account, error) {
	const op = "storage.postgres.CreateAccount"

	query := `
        INSERT INTO accounts (id, email, username, password_hash, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + accountColumns

	created, err := scanAccount(s.db.QueryRow(ctx, query,
		acc.ID,
		acc.Email,
		acc.Username,
		acc.PasswordHash,
		acc.Active,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

// AccountByEmail находит учётную запись по email.
func (s *Storage) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.postgres.AccountByEmail"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	acc, err := scanAccount(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// AccountByID находит учётную запись по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// UpdateAccount обновляет email, username, хэш и активность; updated_at ставит БД.
func (s *Storage) UpdateAccount(ctx context.Context, acc *models.Account) error {
	const op = "storage.postgres.UpdateAccount"

	query := `
        UPDATE accounts
        SET email = $2, username = $3, password_hash = $4, is_active = $5, updated_at = now()
        WHERE id = $1
        RETURNING updated_at
    `

	err := s.db.QueryRow(ctx, query,
		acc.ID,
		acc.Email,
		acc.Username,
		acc.PasswordHash,
		acc.Active,
	).Scan(&acc.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		case isUniqueViolation(err):
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// DeleteAccount удаляет учётную запись.
func (s *Storage) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteAccount"

	cmdTag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var acc models.Account
	if err := row.Scan(
		&acc.ID,
		&acc.Email,
		&acc.Username,
		&acc.PasswordHash,
		&acc.Active,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &acc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
