package models

import (
	"time"

	"github.com/google/uuid"
)

// RevocationRecord — запись об отзыве токена по его jti.
// ExpiresAt равен exp токена плюс допуск на расхождение часов: после этого
// момента запись можно удалять, токен всё равно не пройдёт проверку срока.
type RevocationRecord struct {
	TokenID   string
	AccountID uuid.UUID
	RevokedAt time.Time
	ExpiresAt time.Time
}
