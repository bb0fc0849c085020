// handlers содержит HTTP-обработчики эндпойнтов /auth/*.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/pkg/validator"
	"github.com/pribylovaa/authcore/internal/transport/http/httperr"
)

// AuthService — операции ядра аутентификации, нужные обработчикам.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*models.TokenPair, error)
	Register(ctx context.Context, email, username, password string) (*models.Account, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, token string) error
	ValidateAccessToken(ctx context.Context, token string) (*models.Account, error)
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	auth AuthService
}

func New(auth AuthService) *Handlers {
	return &Handlers{auth: auth}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decode читает и проверяет тело запроса.
// Ошибки разбора JSON сводятся к httperr.ErrBadRequest.
func decode(r *http.Request, dst any) error {
	return classifyDecodeErr(validator.DecodeAndValidate(r, dst))
}

// decodeOptional как decode, но пустое тело (в т.ч. неизвестной длины) не ошибка.
func decodeOptional(r *http.Request, dst any) error {
	err := validator.DecodeAndValidate(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return classifyDecodeErr(err)
}

func classifyDecodeErr(err error) error {
	if err == nil {
		return nil
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return err
	}

	return httperr.ErrBadRequest
}
