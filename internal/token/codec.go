// token выпускает и проверяет подписанные JWT (HS256) двух видов: access и refresh.
//
// Основные аспекты:
//   - вид токена определяется claim "type", который читается один раз из
//     непроверенного payload; затем выполняется ровно одна полная проверка
//     подписи/срока/issuer/audience против структуры нужного вида;
//   - оба вида несут уникальный jti, отзыв и проверка отзыва всегда идут по jti,
//     сырые токены нигде не сохраняются;
//   - истечение срока и отзыв — два независимых пути отказа
//     (ErrTokenExpired и ErrTokenRevoked соответственно).
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/config"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/pkg/log"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Revocations — часть хранилища отзывов, нужная кодеку.
type Revocations interface {
	// IsRevoked сообщает, отозван ли jti.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// SaveRevocation добавляет запись; false — запись с таким jti уже была.
	SaveRevocation(ctx context.Context, rec *models.RevocationRecord) (bool, error)
}

// Codec выпускает, проверяет и отзывает токены.
// Не хранит состояния между вызовами и безопасен для конкурентного использования.
type Codec struct {
	cfg         config.AuthConfig
	secret      []byte
	revocations Revocations
	now         func() time.Time
	parser      *jwt.Parser
	unverified  *jwt.Parser
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник времени (выпуск и проверка срока).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт кодек поверх конфигурации и хранилища отзывов.
func New(cfg config.AuthConfig, revocations Revocations, opts ...Option) (*Codec, error) {
	const op = "token.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: empty jwt secret", op)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be positive", op)
	}

	if revocations == nil {
		return nil, fmt.Errorf("%s: nil revocation store", op)
	}

	c := &Codec{
		cfg:         cfg,
		secret:      []byte(cfg.JWTSecret),
		revocations: revocations,
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(c)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithTimeFunc(c.now),
	}
	if len(cfg.Audience) > 0 {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience...))
	}

	c.parser = jwt.NewParser(parserOpts...)
	c.unverified = jwt.NewParser()

	return c, nil
}

// AccessTTL возвращает время жизни access-токена.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTokenTTL }

// IssueAccess выпускает access-токен для учётной записи.
func (c *Codec) IssueAccess(ctx context.Context, acc *models.Account) (string, error) {
	const op = "token.IssueAccess"

	now := c.now()
	claims := accessClaims{
		Type:             models.TokenKindAccess,
		Email:            acc.Email,
		Username:         acc.Username,
		RegisteredClaims: c.registered(acc.ID, now, c.cfg.AccessTokenTTL),
	}

	signed, err := c.sign(claims)
	if err != nil {
		log.From(ctx).Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// IssueRefresh выпускает refresh-токен со свежим jti.
func (c *Codec) IssueRefresh(ctx context.Context, acc *models.Account) (string, error) {
	const op = "token.IssueRefresh"

	now := c.now()
	claims := refreshClaims{
		Type:             models.TokenKindRefresh,
		RegisteredClaims: c.registered(acc.ID, now, c.cfg.RefreshTokenTTL),
	}

	signed, err := c.sign(claims)
	if err != nil {
		log.From(ctx).Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Parse проверяет подпись, структуру и срок токена и возвращает его claims.
// Отзыв НЕ проверяется.
func (c *Codec) Parse(tokenStr string) (*models.Claims, error) {
	const op = "token.Parse"

	switch t := c.classify(tokenStr).(type) {
	case accessToken:
		claims, err := toModel(models.TokenKindAccess, &t.claims.RegisteredClaims)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		claims.Email = t.claims.Email
		claims.Username = t.claims.Username

		return claims, nil
	case refreshToken:
		claims, err := toModel(models.TokenKindRefresh, &t.claims.RegisteredClaims)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return claims, nil
	case malformed:
		return nil, fmt.Errorf("%s: %w", op, t.err)
	default:
		return nil, fmt.Errorf("%s: %w", op, autherr.ErrInvalidToken)
	}
}

// Validate проверяет токен любого вида и его отзыв.
// Возвращает идентификатор владельца и вид токена.
func (c *Codec) Validate(ctx context.Context, tokenStr string) (uuid.UUID, models.TokenKind, error) {
	const op = "token.Validate"

	claims, err := c.Parse(tokenStr)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := c.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if revoked {
		log.From(ctx).Debug("token_revoked",
			slog.String("op", op),
			slog.String("kind", string(claims.Kind)),
			slog.String("account_id", claims.Subject.String()),
		)
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, autherr.ErrTokenRevoked)
	}

	return claims.Subject, claims.Kind, nil
}

// Revoke отзывает токен любого вида по его jti.
// Повторный отзыв уже отозванного токена — ErrTokenRevoked.
func (c *Codec) Revoke(ctx context.Context, tokenStr string) error {
	const op = "token.Revoke"

	claims, err := c.Parse(tokenStr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	inserted, err := c.revocations.SaveRevocation(ctx, &models.RevocationRecord{
		TokenID:   claims.TokenID,
		AccountID: claims.Subject,
		RevokedAt: c.now(),
		// Запись живёт, пока токен принимается парсером: exp + leeway.
		ExpiresAt: claims.ExpiresAt.Add(c.cfg.Leeway),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !inserted {
		return fmt.Errorf("%s: %w", op, autherr.ErrTokenRevoked)
	}

	return nil
}

// classify определяет вид токена по claim "type" и выполняет одну полную проверку.
func (c *Codec) classify(tokenStr string) parsed {
	var probe kindProbe
	if _, _, err := c.unverified.ParseUnverified(tokenStr, &probe); err != nil {
		return malformed{err: autherr.ErrInvalidToken}
	}

	switch probe.Type {
	case models.TokenKindAccess:
		var claims accessClaims
		if err := c.verify(tokenStr, &claims); err != nil {
			return malformed{err: err}
		}
		if claims.Type != models.TokenKindAccess {
			return malformed{err: autherr.ErrInvalidToken}
		}

		return accessToken{claims: &claims}
	case models.TokenKindRefresh:
		var claims refreshClaims
		if err := c.verify(tokenStr, &claims); err != nil {
			return malformed{err: err}
		}
		if claims.Type != models.TokenKindRefresh {
			return malformed{err: autherr.ErrInvalidToken}
		}

		return refreshToken{claims: &claims}
	default:
		return malformed{err: autherr.ErrInvalidToken}
	}
}

// verify выполняет полную проверку токена и переводит ошибки jwt в доменные.
func (c *Codec) verify(tokenStr string, claims jwt.Claims) error {
	token, err := c.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, autherr.ErrInvalidToken
		}

		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return autherr.ErrTokenExpired
		}

		return autherr.ErrInvalidToken
	}

	if !token.Valid {
		return autherr.ErrInvalidToken
	}

	return nil
}

func (c *Codec) registered(subject uuid.UUID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject.String(),
		Issuer:    c.cfg.Issuer,
		Audience:  jwt.ClaimStrings(c.cfg.Audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// toModel собирает доменные claims и проверяет обязательные поля.
func toModel(kind models.TokenKind, rc *jwt.RegisteredClaims) (*models.Claims, error) {
	subject, err := uuid.Parse(rc.Subject)
	if err != nil || subject == uuid.Nil {
		return nil, autherr.ErrInvalidToken
	}

	if rc.ID == "" || rc.ExpiresAt == nil || rc.IssuedAt == nil {
		return nil, autherr.ErrInvalidToken
	}

	return &models.Claims{
		Subject:   subject,
		Kind:      kind,
		TokenID:   rc.ID,
		IssuedAt:  rc.IssuedAt.Time.UTC(),
		ExpiresAt: rc.ExpiresAt.Time.UTC(),
		Issuer:    rc.Issuer,
		Audience:  []string(rc.Audience),
	}, nil
}
