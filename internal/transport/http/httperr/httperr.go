// httperr стандартизирует ответы об ошибках HTTP-слоя auth-core.
// На вход принимает ошибку сервисного слоя, на выход даёт:
//   - HTTP-статус по виду доменной ошибки (autherr.Kind);
//   - стабильный машиночитаемый code и безопасное message.
//
// Ошибки хранилищ и прочие недоменные ошибки превращаются в 500/internal
// без деталей.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/pkg/validator"
)

// Нестандартный код для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrBadRequest — тело запроса не разобрано или не прошло проверку полей.
var ErrBadRequest = errors.New("bad request")

// APIError — единый формат ошибки для клиентов.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова, 500/internal;
//   - *validator.ValidationError и ErrBadRequest — 400/invalid_argument;
//   - доменные ошибки — по таблице fromKind;
//   - context.Canceled — 499, context.DeadlineExceeded — 504;
//   - прочее — 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{Error: APIError{
			Code:    "invalid_argument",
			Message: "invalid argument",
			Fields:  verr.Fields(),
		}}
	}

	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest, ErrorResponse{Error: APIError{
			Code:    "invalid_argument",
			Message: "invalid argument",
		}}
	}

	if kind := autherr.KindOf(err); kind != autherr.KindUnknown {
		return fromKind(kind)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, ErrorResponse{Error: APIError{Code: "canceled", Message: "canceled"}}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: APIError{Code: "deadline_exceeded", Message: "deadline exceeded"}}
	}

	return internal()
}

// WriteError пишет статус и тело ошибки, добавляя request_id из заголовка.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// fromKind — маппинг вида доменной ошибки на HTTP:
//   - InvalidEmailFormat, WeakPassword -> 400;
//   - InvalidCredentials, InvalidToken, TokenExpired, TokenRevoked -> 401;
//   - AccountInactive, AccountNotFound -> 403;
//   - EmailAlreadyExists -> 409;
//   - HashingFailure -> 500.
func fromKind(kind autherr.Kind) (int, ErrorResponse) {
	var status int

	switch kind {
	case autherr.KindInvalidEmailFormat, autherr.KindWeakPassword:
		status = http.StatusBadRequest
	case autherr.KindInvalidCredentials, autherr.KindInvalidToken,
		autherr.KindTokenExpired, autherr.KindTokenRevoked:
		status = http.StatusUnauthorized
	case autherr.KindAccountInactive, autherr.KindAccountNotFound:
		status = http.StatusForbidden
	case autherr.KindEmailAlreadyExists:
		status = http.StatusConflict
	default:
		return internal()
	}

	return status, ErrorResponse{Error: APIError{
		Code:    kind.String(),
		Message: messageOf(kind),
	}}
}

// messageOf возвращает текст sentinel-ошибки вида kind.
func messageOf(kind autherr.Kind) string {
	for _, e := range []*autherr.Error{
		autherr.ErrInvalidEmailFormat,
		autherr.ErrWeakPassword,
		autherr.ErrInvalidCredentials,
		autherr.ErrAccountInactive,
		autherr.ErrInvalidToken,
		autherr.ErrTokenExpired,
		autherr.ErrTokenRevoked,
		autherr.ErrAccountNotFound,
		autherr.ErrEmailAlreadyExists,
	} {
		if e.Kind == kind {
			return e.Message
		}
	}

	return kind.String()
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, ErrorResponse{Error: APIError{
		Code:    "internal",
		Message: "internal error",
	}}
}
