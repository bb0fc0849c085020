// storage задаёт контракты хранилищ auth-core: учётные записи и отзывы токенов.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/authcore/internal/models"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/pribylovaa/authcore/internal/storage AccountStorage,RevocationStorage

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// AccountStorage выполняет операции над учётными записями.
type AccountStorage interface {
	// AccountByID находит учётную запись по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// AccountByEmail находит учётную запись по нормализованному email.
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	// CreateAccount атомарно создаёт учётную запись и возвращает сохранённое значение.
	// При занятом email возвращает ErrAlreadyExists.
	CreateAccount(ctx context.Context, acc *models.Account) (*models.Account, error)
	// UpdateAccount обновляет изменяемые поля (username, хэш, активность).
	UpdateAccount(ctx context.Context, acc *models.Account) error
	// DeleteAccount удаляет учётную запись.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// RevocationStorage хранит отозванные jti до истечения срока их токенов.
type RevocationStorage interface {
	// IsRevoked сообщает, отозван ли jti.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// SaveRevocation атомарно добавляет запись.
	// Возвращает false, если запись с таким jti уже существовала.
	SaveRevocation(ctx context.Context, rec *models.RevocationRecord) (bool, error)
	// DeleteExpiredRevocations удаляет записи с expires_at <= now и возвращает их число.
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}
