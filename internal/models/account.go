package models

import (
	"time"

	"github.com/google/uuid"
)

// Account — зарегистрированная учётная запись.
//
// Email хранится в нормализованном виде (trim + lower-case), уникальность
// обеспечивает хранилище, а не сервисный слой. PasswordHash — всегда хэш,
// открытый пароль в модели не появляется.
type Account struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credentials — эфемерная пара email+пароль на время вызова login.
// Никогда не сохраняется и не логируется.
type Credentials struct {
	Email    string
	Password string
}
