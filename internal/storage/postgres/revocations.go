package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/authcore/internal/models"
)

// IsRevoked сообщает, есть ли запись об отзыве jti.
func (s *Storage) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "storage.postgres.IsRevoked"

	query := `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`

	var revoked bool
	if err := s.db.QueryRow(ctx, query, tokenID).Scan(&revoked); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return revoked, nil
}

// SaveRevocation добавляет запись об отзыве.
// Возвращает:
//
//	(true, nil)  — запись создана сейчас;
//	(false, nil) — jti уже был отозван ранее.
func (s *Storage) SaveRevocation(ctx context.Context, rec *models.RevocationRecord) (bool, error) {
	const op = "storage.postgres.SaveRevocation"

	query := `
        INSERT INTO revoked_tokens (token_id, account_id, revoked_at, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (token_id) DO NOTHING
    `

	cmdTag, err := s.db.Exec(ctx, query,
		rec.TokenID,
		rec.AccountID,
		rec.RevokedAt,
		rec.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// DeleteExpiredRevocations удаляет записи отзыва, чьи токены уже истекли.
func (s *Storage) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.DeleteExpiredRevocations"

	cmdTag, err := s.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cmdTag.RowsAffected(), nil
}
