package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/transport/http/httperr"
)

type (
	bearerKey  struct{}
	accountKey struct{}
)

// AccessValidator проверяет access-токен и возвращает его владельца.
type AccessValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*models.Account, error)
}

// AuthBearer извлекает Bearer-токен из Authorization и кладёт его в контекст.
// Запрос без токена пропускается дальше без изменений.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearer(r.Header.Get("Authorization")); ok {
				r = r.WithContext(context.WithValue(r.Context(), bearerKey{}, token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate требует действительный access-токен и кладёт учётную запись
// владельца в контекст. Ставится после AuthBearer.
func Authenticate(v AccessValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Context())
			if !ok {
				httperr.WriteError(w, r, autherr.ErrInvalidToken)
				return
			}

			acc, err := v.ValidateAccessToken(r.Context(), token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey{}, acc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken возвращает токен, извлечённый AuthBearer.
func BearerToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey{}).(string)
	return token, ok
}

// AccountFrom возвращает учётную запись, положенную Authenticate.
func AccountFrom(ctx context.Context) (*models.Account, bool) {
	acc, ok := ctx.Value(accountKey{}).(*models.Account)
	return acc, ok
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "

	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
