package token

import (
	"github.com/pribylovaa/authcore/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// accessClaims — payload access-токена.
type accessClaims struct {
	Type     models.TokenKind `json:"type"`
	Email    string           `json:"email"`
	Username string           `json:"username"`
	jwt.RegisteredClaims
}

// refreshClaims — payload refresh-токена.
type refreshClaims struct {
	Type models.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// kindProbe читается из НЕпроверенного payload ровно один раз,
// чтобы выбрать структуру для полной проверки.
type kindProbe struct {
	Type models.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// parsed — результат классификации токена: accessToken | refreshToken | malformed.
type parsed interface {
	isParsed()
}

type accessToken struct{ claims *accessClaims }

type refreshToken struct{ claims *refreshClaims }

// malformed несёт доменную причину отказа (ErrInvalidToken или ErrTokenExpired).
type malformed struct{ err error }

func (accessToken) isParsed()  {}
func (refreshToken) isParsed() {}
func (malformed) isParsed()    {}
