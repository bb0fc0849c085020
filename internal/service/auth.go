package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/pkg/log"
	"github.com/pribylovaa/authcore/internal/pkg/redact"
	"github.com/pribylovaa/authcore/internal/storage"

	"github.com/google/uuid"
)

// decoyPassword хэшируется один раз и сравнивается при входе с неизвестным email.
const decoyPassword = "decoy-password-never-matches"

// Login выполняет вход по email+пароль и выдаёт пару токенов.
// Неизвестный email и неверный пароль неразличимы: оба дают ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (_ *models.TokenPair, err error) {
	const op = "service.auth.Login"

	defer observe("login", time.Now(), &err)

	lg := log.From(ctx)

	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.accounts.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.decoyVerify(ctx, creds.Password)
			lg.Info("login_failed",
				slog.String("email", redact.Email(email)),
				slog.String("reason", "unknown_email"),
			)
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !acc.Active {
		lg.Info("login_failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("reason", "inactive"),
		)
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrAccountInactive)
	}

	ok, err := s.hasher.Verify(ctx, creds.Password, acc.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		lg.Info("login_failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("reason", "password_mismatch"),
		)
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidCredentials)
	}

	s.rehashIfNeeded(ctx, acc, creds.Password)

	pair, err := s.issuePair(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_succeeded", slog.String("account_id", acc.ID.String()))

	return pair, nil
}

// Register создаёт активную учётную запись. Токены не выдаются.
func (s *Service) Register(ctx context.Context, email, username, password string) (_ *models.Account, err error) {
	const op = "service.auth.Register"

	defer observe("register", time.Now(), &err)

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.accounts.AccountByEmail(ctx, normEmail)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrEmailAlreadyExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	acc := &models.Account{
		ID:           uuid.New(),
		Email:        normEmail,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Единственная мутация: после отмены запись не создаётся.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.accounts.CreateAccount(ctx, acc)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, autherr.ErrEmailAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("account_registered",
		slog.String("account_id", created.ID.String()),
		slog.String("email", redact.Email(created.Email)),
	)

	return created, nil
}

// Refresh обменивает refresh-токен на новую пару и отзывает использованный.
// Из двух конкурентных обменов одного токена успешен ровно один:
// проигравший получает ErrTokenRevoked, а выпущенная для него пара отбрасывается.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (_ *models.TokenPair, err error) {
	const op = "service.auth.Refresh"

	defer observe("refresh", time.Now(), &err)

	id, kind, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if kind != models.TokenKindRefresh {
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
	}

	acc, err := s.activeAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, autherr.ErrTokenRevoked) {
			log.From(ctx).Warn("refresh_replay_detected",
				slog.String("account_id", acc.ID.String()),
			)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("refresh_rotated", slog.String("account_id", acc.ID.String()))

	return pair, nil
}

// Logout отзывает токен любого вида.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	const op = "service.auth.Logout"

	defer observe("logout", time.Now(), &err)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.Revoke(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// issuePair выпускает access и refresh токены для учётной записи.
func (s *Service) issuePair(ctx context.Context, acc *models.Account) (*models.TokenPair, error) {
	const op = "service.auth.issuePair"

	access, err := s.tokens.IssueAccess(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.tokens.IssueRefresh(ctx, acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
		TokenType:    models.TokenTypeBearer,
	}, nil
}

// decoyVerify тратит одну bcrypt-проверку на незарегистрированный email.
func (s *Service) decoyVerify(ctx context.Context, password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), decoyPassword)
		if err != nil {
			log.From(ctx).Warn("decoy_hash_failed", slog.String("err", err.Error()))
			return
		}
		s.decoyHash = hash
	})

	if s.decoyHash == "" {
		return
	}

	_, _ = s.hasher.Verify(ctx, password, s.decoyHash)
}

// rehashIfNeeded перехэширует пароль с текущими параметрами после успешного входа.
// Сбой не влияет на результат входа.
func (s *Service) rehashIfNeeded(ctx context.Context, acc *models.Account, password string) {
	if ctx.Err() != nil {
		return
	}

	needs, err := s.hasher.NeedsRehash(acc.PasswordHash)
	if err != nil || !needs {
		return
	}

	lg := log.From(ctx)

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		lg.Warn("password_rehash_failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("err", err.Error()),
		)
		return
	}

	updated := *acc
	updated.PasswordHash = hash

	if err := s.accounts.UpdateAccount(ctx, &updated); err != nil {
		lg.Warn("password_rehash_failed",
			slog.String("account_id", acc.ID.String()),
			slog.String("err", err.Error()),
		)
		return
	}

	lg.Info("password_rehashed", slog.String("account_id", acc.ID.String()))
}
