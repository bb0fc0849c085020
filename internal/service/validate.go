package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/storage"

	"github.com/google/uuid"
)

// ValidateAccessToken проверяет access-токен и возвращает активную учётную запись владельца.
// Refresh-токен здесь не принимается (ErrInvalidToken).
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (_ *models.Account, err error) {
	const op = "service.validate.ValidateAccessToken"

	defer observe("validate", time.Now(), &err)

	id, kind, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if kind != models.TokenKindAccess {
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
	}

	acc, err := s.activeAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

// activeAccount находит владельца токена: отсутствие — ErrAccountNotFound,
// деактивация — ErrAccountInactive.
func (s *Service) activeAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "service.validate.activeAccount"

	acc, err := s.accounts.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !acc.Active {
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrAccountInactive)
	}

	return acc, nil
}
