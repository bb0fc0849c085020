package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pribylovaa/authcore/internal/autherr"
	"github.com/pribylovaa/authcore/internal/config"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/storage/mocks"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-test-secret-unit-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 168 * time.Hour,
		Issuer:          "auth-core",
		Audience:        []string{"auth-core-client"},
		Leeway:          5 * time.Second,
	}
}

func newCodec(t *testing.T, opts ...Option) (*Codec, *mocks.MockRevocationStorage) {
	t.Helper()
	ctrl := gomock.NewController(t)
	rev := mocks.NewMockRevocationStorage(ctrl)

	c, err := New(testAuthCfg(), rev, opts...)
	require.NoError(t, err)

	return c, rev
}

func testAccount() *models.Account {
	return &models.Account{
		ID:       uuid.New(),
		Email:    "user@example.com",
		Username: "user",
		Active:   true,
	}
}

func signMap(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseMapClaims(sub uuid.UUID, kind string) jwt.MapClaims {
	now := time.Now()
	cfg := testAuthCfg()
	return jwt.MapClaims{
		"type": kind,
		"sub":  sub.String(),
		"jti":  uuid.NewString(),
		"iss":  cfg.Issuer,
		"aud":  cfg.Audience,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	rev := mocks.NewMockRevocationStorage(ctrl)

	cfg := testAuthCfg()
	cfg.JWTSecret = ""
	_, err := New(cfg, rev)
	require.Error(t, err)

	cfg = testAuthCfg()
	cfg.AccessTokenTTL = 0
	_, err = New(cfg, rev)
	require.Error(t, err)

	_, err = New(testAuthCfg(), nil)
	require.Error(t, err)
}

func TestIssueAccess_ParseRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)
	acc := testAccount()

	tok, err := c.IssueAccess(context.Background(), acc)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	claims, err := c.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, acc.ID, claims.Subject)
	require.Equal(t, models.TokenKindAccess, claims.Kind)
	require.Equal(t, acc.Email, claims.Email)
	require.Equal(t, acc.Username, claims.Username)
	require.Equal(t, "auth-core", claims.Issuer)
	require.Equal(t, []string{"auth-core-client"}, claims.Audience)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 2*time.Second)
	require.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestIssueRefresh_ParseRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)
	acc := testAccount()

	tok, err := c.IssueRefresh(context.Background(), acc)
	require.NoError(t, err)

	claims, err := c.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, acc.ID, claims.Subject)
	require.Equal(t, models.TokenKindRefresh, claims.Kind)
	require.NotEmpty(t, claims.TokenID)
	require.Empty(t, claims.Email)
	require.Equal(t, 168*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))
}

func TestIssue_FreshTokenIDPerIssuance(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)
	acc := testAccount()

	seen := map[string]struct{}{}
	for i := 0; i < 4; i++ {
		a, err := c.IssueAccess(context.Background(), acc)
		require.NoError(t, err)
		r, err := c.IssueRefresh(context.Background(), acc)
		require.NoError(t, err)

		for _, tok := range []string{a, r} {
			claims, err := c.Parse(tok)
			require.NoError(t, err)
			_, dup := seen[claims.TokenID]
			require.False(t, dup)
			seen[claims.TokenID] = struct{}{}
		}
	}
}

func TestValidate_OK_ReportsKind(t *testing.T) {
	t.Parallel()

	c, rev := newCodec(t)
	acc := testAccount()
	ctx := context.Background()

	access, err := c.IssueAccess(ctx, acc)
	require.NoError(t, err)
	refresh, err := c.IssueRefresh(ctx, acc)
	require.NoError(t, err)

	rev.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(false, nil).Times(2)

	id, kind, err := c.Validate(ctx, access)
	require.NoError(t, err)
	require.Equal(t, acc.ID, id)
	require.Equal(t, models.TokenKindAccess, kind)

	id, kind, err = c.Validate(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, acc.ID, id)
	require.Equal(t, models.TokenKindRefresh, kind)
}

func TestValidate_Revoked(t *testing.T) {
	t.Parallel()

	c, rev := newCodec(t)
	tok, err := c.IssueAccess(context.Background(), testAccount())
	require.NoError(t, err)

	claims, err := c.Parse(tok)
	require.NoError(t, err)

	rev.EXPECT().IsRevoked(gomock.Any(), claims.TokenID).Return(true, nil)

	_, _, err = c.Validate(context.Background(), tok)
	require.ErrorIs(t, err, autherr.ErrTokenRevoked)
}

func TestValidate_StoreErrorPropagated(t *testing.T) {
	t.Parallel()

	c, rev := newCodec(t)
	tok, err := c.IssueRefresh(context.Background(), testAccount())
	require.NoError(t, err)

	storeErr := errors.New("redis down")
	rev.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(false, storeErr)

	_, _, err = c.Validate(context.Background(), tok)
	require.ErrorIs(t, err, storeErr)
	require.Equal(t, autherr.KindUnknown, autherr.KindOf(err))
}

func TestValidate_Expired_WithoutStoreLookup(t *testing.T) {
	t.Parallel()

	past := func() time.Time { return time.Now().Add(-200 * time.Hour) }
	issuer, _ := newCodec(t, WithClock(past))
	c, _ := newCodec(t)

	for _, issue := range []func(context.Context, *models.Account) (string, error){issuer.IssueAccess, issuer.IssueRefresh} {
		tok, err := issue(context.Background(), testAccount())
		require.NoError(t, err)

		// IsRevoked не ожидается: истёкший токен отвергается до обращения к хранилищу.
		_, _, err = c.Validate(context.Background(), tok)
		require.ErrorIs(t, err, autherr.ErrTokenExpired)
	}
}

func TestParse_WithinLeeway(t *testing.T) {
	t.Parallel()

	now := time.Now()
	issuer, _ := newCodec(t, WithClock(func() time.Time { return now.Add(-time.Hour - 2*time.Second) }))
	c, _ := newCodec(t, WithClock(func() time.Time { return now }))

	tok, err := issuer.IssueAccess(context.Background(), testAccount())
	require.NoError(t, err)

	_, err = c.Parse(tok)
	require.NoError(t, err)
}

func TestParse_InvalidToken_Table(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)
	cfg := testAuthCfg()
	sub := uuid.New()

	valid, err := c.IssueAccess(context.Background(), testAccount())
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	tests := []struct {
		name  string
		token func() string
	}{
		{name: "empty", token: func() string { return "" }},
		{name: "garbage", token: func() string { return "not.a.jwt" }},
		{name: "tampered_signature", token: func() string { return parts[0] + "." + parts[1] + ".AAAA" }},
		{name: "wrong_secret", token: func() string {
			return signMap(t, jwt.SigningMethodHS256, baseMapClaims(sub, "access"), "another-secret")
		}},
		{name: "wrong_alg_hs512", token: func() string {
			return signMap(t, jwt.SigningMethodHS512, baseMapClaims(sub, "access"), cfg.JWTSecret)
		}},
		{name: "alg_none", token: func() string {
			s, err := jwt.NewWithClaims(jwt.SigningMethodNone, baseMapClaims(sub, "access")).
				SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return s
		}},
		{name: "unknown_type", token: func() string {
			return signMap(t, jwt.SigningMethodHS256, baseMapClaims(sub, "id"), cfg.JWTSecret)
		}},
		{name: "missing_type", token: func() string {
			m := baseMapClaims(sub, "access")
			delete(m, "type")
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
		{name: "wrong_issuer", token: func() string {
			m := baseMapClaims(sub, "access")
			m["iss"] = "someone-else"
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
		{name: "wrong_audience", token: func() string {
			m := baseMapClaims(sub, "refresh")
			m["aud"] = []string{"other"}
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
		{name: "missing_exp", token: func() string {
			m := baseMapClaims(sub, "access")
			delete(m, "exp")
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
		{name: "missing_jti", token: func() string {
			m := baseMapClaims(sub, "refresh")
			delete(m, "jti")
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
		{name: "subject_not_uuid", token: func() string {
			m := baseMapClaims(sub, "access")
			m["sub"] = "42"
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
		{name: "issued_in_future", token: func() string {
			m := baseMapClaims(sub, "access")
			m["iat"] = time.Now().Add(time.Hour).Unix()
			return signMap(t, jwt.SigningMethodHS256, m, cfg.JWTSecret)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse(tt.token())
			require.ErrorIs(t, err, autherr.ErrInvalidToken)
		})
	}
}

func TestRevoke_KeyedByTokenID(t *testing.T) {
	t.Parallel()

	c, rev := newCodec(t)
	acc := testAccount()

	tok, err := c.IssueRefresh(context.Background(), acc)
	require.NoError(t, err)
	claims, err := c.Parse(tok)
	require.NoError(t, err)

	rev.EXPECT().SaveRevocation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *models.RevocationRecord) (bool, error) {
			require.Equal(t, claims.TokenID, rec.TokenID)
			require.Equal(t, acc.ID, rec.AccountID)
			require.Equal(t, claims.ExpiresAt.Add(testAuthCfg().Leeway), rec.ExpiresAt)
			require.False(t, rec.RevokedAt.IsZero())
			require.NotContains(t, rec.TokenID, ".")
			return true, nil
		})

	require.NoError(t, c.Revoke(context.Background(), tok))
}

func TestRevoke_WithinLeeway_RecordOutlivesAcceptance(t *testing.T) {
	t.Parallel()

	now := time.Now()
	issuer, _ := newCodec(t, WithClock(func() time.Time { return now.Add(-time.Hour - 2*time.Second) }))
	c, rev := newCodec(t, WithClock(func() time.Time { return now }))

	tok, err := issuer.IssueAccess(context.Background(), testAccount())
	require.NoError(t, err)

	claims, err := c.Parse(tok)
	require.NoError(t, err)
	require.True(t, claims.ExpiresAt.Before(now))

	rev.EXPECT().SaveRevocation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *models.RevocationRecord) (bool, error) {
			require.True(t, rec.ExpiresAt.After(now))
			require.Equal(t, claims.ExpiresAt.Add(testAuthCfg().Leeway), rec.ExpiresAt)
			return true, nil
		})

	require.NoError(t, c.Revoke(context.Background(), tok))
}

func TestRevoke_AlreadyRevoked(t *testing.T) {
	t.Parallel()

	c, rev := newCodec(t)
	tok, err := c.IssueAccess(context.Background(), testAccount())
	require.NoError(t, err)

	rev.EXPECT().SaveRevocation(gomock.Any(), gomock.Any()).Return(false, nil)

	err = c.Revoke(context.Background(), tok)
	require.ErrorIs(t, err, autherr.ErrTokenRevoked)
}

func TestRevoke_InvalidTokenNeverReachesStore(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)

	err := c.Revoke(context.Background(), "garbage")
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestRevoke_StoreErrorPropagated(t *testing.T) {
	t.Parallel()

	c, rev := newCodec(t)
	tok, err := c.IssueAccess(context.Background(), testAccount())
	require.NoError(t, err)

	storeErr := errors.New("db down")
	rev.EXPECT().SaveRevocation(gomock.Any(), gomock.Any()).Return(false, storeErr)

	err = c.Revoke(context.Background(), tok)
	require.ErrorIs(t, err, storeErr)
}

func TestAccessTTL(t *testing.T) {
	t.Parallel()

	c, _ := newCodec(t)
	require.Equal(t, time.Hour, c.AccessTTL())
}
