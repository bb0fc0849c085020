package service

import (
	"strings"
	"unicode"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/pkg/validator"
)

const minPasswordLen = 8

// normalizeEmail проверяет грамматику адреса и приводит его к каноническому виду.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if !validator.Email(email) {
		return "", autherr.ErrInvalidEmailFormat
	}

	return strings.ToLower(email), nil
}

// validatePassword: не короче 8 символов, есть заглавная, строчная буква и цифра.
func validatePassword(pw string) error {
	if len([]rune(pw)) < minPasswordLen {
		return autherr.ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit {
		return autherr.ErrWeakPassword
	}

	return nil
}
