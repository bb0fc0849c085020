// autherr описывает таксономию доменных ошибок аутентификации.
//
// Каждая ошибка — структурное значение *Error с видом (Kind) и человекочитаемым
// сообщением. Ошибки объявлены как sentinel-переменные: слои выше оборачивают
// их через fmt.Errorf("%s: %w", op, err), а потребители проверяют errors.Is
// или KindOf. Маппинг на коды транспорта в пакете не определяется.
package autherr

import "errors"

// Kind — вид доменной ошибки.
type Kind uint8

const (
	KindUnknown Kind = iota

	// Ошибки входных данных: обнаруживаются до обращения к хранилищам.
	KindInvalidEmailFormat
	KindWeakPassword

	// Ошибки состояния аутентификации: запрос корректен, но отклонён.
	KindInvalidCredentials
	KindAccountInactive
	KindInvalidToken
	KindTokenExpired
	KindTokenRevoked
	KindAccountNotFound
	KindEmailAlreadyExists

	// Внутренний сбой хэширования (библиотека или повреждённый хэш).
	KindHashingFailure
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidEmailFormat: "invalid_email_format",
	KindWeakPassword:       "weak_password",
	KindInvalidCredentials: "invalid_credentials",
	KindAccountInactive:    "account_inactive",
	KindInvalidToken:       "invalid_token",
	KindTokenExpired:       "token_expired",
	KindTokenRevoked:       "token_revoked",
	KindAccountNotFound:    "account_not_found",
	KindEmailAlreadyExists: "email_already_exists",
	KindHashingFailure:     "hashing_failure",
}

// String возвращает стабильный snake_case код вида.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return kindNames[KindUnknown]
}

// Error — доменная ошибка.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrInvalidEmailFormat — email не соответствует грамматике адреса.
	ErrInvalidEmailFormat = &Error{Kind: KindInvalidEmailFormat, Message: "invalid email format"}

	// ErrWeakPassword — пароль не удовлетворяет политике сложности.
	ErrWeakPassword = &Error{Kind: KindWeakPassword, Message: "password does not meet security requirements"}

	// ErrInvalidCredentials — неверная пара email/пароль ИЛИ email не зарегистрирован.
	// Обе ситуации намеренно неразличимы для вызывающего.
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid email or password"}

	// ErrAccountInactive — учётная запись деактивирована.
	ErrAccountInactive = &Error{Kind: KindAccountInactive, Message: "account is not active"}

	// ErrInvalidToken — токен не прошёл проверку подписи/структуры или не того вида.
	ErrInvalidToken = &Error{Kind: KindInvalidToken, Message: "invalid token"}

	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = &Error{Kind: KindTokenExpired, Message: "token has expired"}

	// ErrTokenRevoked — токен отозван (logout/ротация).
	ErrTokenRevoked = &Error{Kind: KindTokenRevoked, Message: "token has been revoked"}

	// ErrAccountNotFound — владелец валидного токена не найден.
	ErrAccountNotFound = &Error{Kind: KindAccountNotFound, Message: "account not found"}

	// ErrEmailAlreadyExists — email уже зарегистрирован.
	ErrEmailAlreadyExists = &Error{Kind: KindEmailAlreadyExists, Message: "email address is already registered"}

	// ErrHashingFailure — сбой хэширования или некорректный сохранённый хэш.
	ErrHashingFailure = &Error{Kind: KindHashingFailure, Message: "password hashing failure"}
)

// KindOf извлекает вид доменной ошибки из цепочки err.
// Для nil и недоменных ошибок возвращает KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// Is сообщает, содержит ли цепочка err доменную ошибку вида k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
