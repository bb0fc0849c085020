package handlers

import (
	"time"

	"github.com/pribylovaa/authcore/internal/models"
)

// Пароли и адреса проверяются сервисом: здесь только наличие полей,
// чтобы доменные ошибки (weak_password, invalid_email_format) доходили до клиента.

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func userFromModel(acc *models.Account) userResponse {
	return userResponse{
		ID:        acc.ID.String(),
		Email:     acc.Email,
		Username:  acc.Username,
		Active:    acc.Active,
		CreatedAt: acc.CreatedAt,
	}
}

func authFromModel(pair *models.TokenPair, acc *models.Account) authResponse {
	return authResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		TokenType:    pair.TokenType,
		User:         userFromModel(acc),
	}
}
