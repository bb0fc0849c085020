// service содержит бизнес-логику auth-core: вход, регистрацию, ротацию
// refresh-токенов, выход и проверку access-токенов.
//
// Основные аспекты:
//   - Service не хранит состояния запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасных зависимостях;
//   - зависимости (хранилище учётных записей, хэшер, кодек токенов) передаются
//     явно через New и описаны интерфейсами ниже;
//   - доменные ошибки — значения из пакета autherr; ошибки хранилищ
//     пробрасываются без изменений (только с префиксом op).
package service

import (
	"context"
	"sync"
	"time"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/metrics"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/storage"

	"github.com/google/uuid"
)

// PasswordHasher — одностороннее хэширование паролей.
type PasswordHasher interface {
	// Hash возвращает новый солёный хэш пароля.
	Hash(ctx context.Context, password string) (string, error)
	// Verify сравнивает пароль с хэшем; false без ошибки означает несовпадение.
	Verify(ctx context.Context, password, hash string) (bool, error)
	// NeedsRehash сообщает, что хэш создан с устаревшими параметрами.
	NeedsRehash(hash string) (bool, error)
}

// TokenCodec — выпуск, проверка и отзыв токенов.
type TokenCodec interface {
	IssueAccess(ctx context.Context, acc *models.Account) (string, error)
	IssueRefresh(ctx context.Context, acc *models.Account) (string, error)
	// Validate проверяет подпись, срок и отзыв; возвращает владельца и вид токена.
	Validate(ctx context.Context, token string) (uuid.UUID, models.TokenKind, error)
	// Revoke отзывает токен; повторный отзыв — autherr.ErrTokenRevoked.
	Revoke(ctx context.Context, token string) error
	AccessTTL() time.Duration
}

// Service описывает бизнес-логику auth-core.
type Service struct {
	accounts storage.AccountStorage
	hasher   PasswordHasher
	tokens   TokenCodec

	// Хэш-приманка для входа с незарегистрированным email:
	// вычисляется один раз, чтобы оба пути отказа стоили одинаково.
	decoyOnce sync.Once
	decoyHash string
}

// New создаёт новый экземпляр Service.
func New(accounts storage.AccountStorage, hasher PasswordHasher, tokens TokenCodec) *Service {
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// observe фиксирует результат операции в метриках.
func observe(op string, started time.Time, err *error) {
	result := "ok"
	if *err != nil {
		kind := autherr.KindOf(*err)
		if kind == autherr.KindUnknown {
			result = "error"
		} else {
			result = kind.String()
		}
	}

	metrics.ObserveOperation(op, result, started)
}
