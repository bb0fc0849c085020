package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind — вид токена, записанный в claim "type".
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenTypeBearer — значение TokenPair.TokenType.
const TokenTypeBearer = "Bearer"

// TokenPair — пара токенов, выдаваемая при входе и обновлении.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT, одноразово обменивается на новую пару;
//   - ExpiresIn — время жизни access-токена в секундах;
//   - TokenType — всегда "Bearer".
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
}

// Claims — нормализованное содержимое проверенного токена.
// Email/Username заполняются только для access-токенов.
type Claims struct {
	Subject   uuid.UUID
	Kind      TokenKind
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
	Audience  []string
	Email     string
	Username  string
}
