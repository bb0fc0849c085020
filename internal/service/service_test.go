package service

import (
	"context"
	"testing"
	"time"

	"github.com/pribylovaa/authcore/internal/config"
	"github.com/pribylovaa/authcore/internal/hasher"
	"github.com/pribylovaa/authcore/internal/models"
	"github.com/pribylovaa/authcore/internal/storage/mocks"
	redisstore "github.com/pribylovaa/authcore/internal/storage/redis"
	"github.com/pribylovaa/authcore/internal/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Тесты сервиса используют настоящие хэшер (bcrypt.MinCost) и кодек токенов
// поверх Redis-хранилища отзывов на miniredis; учётные записи — gomock.

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

type fixture struct {
	svc         *Service
	accounts    *mocks.MockAccountStorage
	hasher      *hasher.Bcrypt
	codec       *token.Codec
	revocations *redisstore.RevocationStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	accounts := mocks.NewMockAccountStorage(ctrl)

	h, err := hasher.New(hasher.Config{Cost: bcrypt.MinCost, Workers: 4})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	revocations := redisstore.NewWithClient(rdb, "")

	codec, err := token.New(testAuthCfg(), revocations)
	require.NoError(t, err)

	return &fixture{
		svc:         New(accounts, h, codec),
		accounts:    accounts,
		hasher:      h,
		codec:       codec,
		revocations: revocations,
	}
}

// account создаёт учётную запись с bcrypt-хэшем пароля.
func (f *fixture) account(t *testing.T, email, password string, active bool) *models.Account {
	t.Helper()

	hash, err := f.hasher.Hash(context.Background(), password)
	require.NoError(t, err)

	now := time.Now().UTC()
	return &models.Account{
		ID:           uuid.New(),
		Email:        email,
		Username:     "user",
		PasswordHash: hash,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// expectLookupByID разрешает любое число поисков владельца токена.
func (f *fixture) expectLookupByID(acc *models.Account) {
	f.accounts.EXPECT().AccountByID(gomock.Any(), acc.ID).Return(acc, nil).AnyTimes()
}

// login выполняет успешный вход для acc.
func (f *fixture) login(t *testing.T, acc *models.Account, password string) *models.TokenPair {
	t.Helper()

	f.accounts.EXPECT().AccountByEmail(gomock.Any(), acc.Email).Return(acc, nil)

	pair, err := f.svc.Login(context.Background(), models.Credentials{Email: acc.Email, Password: password})
	require.NoError(t, err)

	return pair
}
