package handlers

import (
	"errors"
	"net/http"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/transport/http/httperr"
	"github.com/pribylovaa/authcore/internal/transport/http/middleware"
)

// Register создаёт учётную запись и сразу выполняет вход.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decode(r, &in); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	acc, err := h.auth.Register(r.Context(), in.Email, in.Username, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), models.Credentials{Email: acc.Email, Password: in.Password})
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authFromModel(pair, acc))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(r, &in); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), models.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, r, pair)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decode(r, &in); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	pair, err := h.auth.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, r, pair)
}

// Logout отзывает предъявленный access-токен и, если передан, refresh-токен.
// Уже отозванный refresh-токен не считается ошибкой.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r.Context())
	if !ok {
		httperr.WriteError(w, r, autherr.ErrInvalidToken)
		return
	}

	var in logoutRequest
	if err := decodeOptional(r, &in); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	if in.RefreshToken != "" {
		if err := h.auth.Logout(r.Context(), in.RefreshToken); err != nil && !errors.Is(err, autherr.ErrTokenRevoked) {
			httperr.WriteError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "successfully logged out"})
}

// Me возвращает учётную запись, положенную middleware.Authenticate.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	acc, ok := middleware.AccountFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, autherr.ErrInvalidToken)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(acc))
}

// writeAuth дополняет пару токенов данными владельца.
func (h *Handlers) writeAuth(w http.ResponseWriter, r *http.Request, pair *models.TokenPair) {
	acc, err := h.auth.ValidateAccessToken(r.Context(), pair.AccessToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authFromModel(pair, acc))
}
