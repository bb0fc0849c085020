package autherr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf_WrappedSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("service.auth.Login: %w", fmt.Errorf("token.Validate: %w", ErrTokenRevoked))

	require.ErrorIs(t, err, ErrTokenRevoked)
	require.Equal(t, KindTokenRevoked, KindOf(err))
	require.True(t, Is(err, KindTokenRevoked))
	require.False(t, Is(err, KindInvalidToken))
}

func TestKindOf_NonDomainErrors(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindUnknown, KindOf(nil))
	require.Equal(t, KindUnknown, KindOf(errors.New("db down")))
	require.Equal(t, KindUnknown, KindOf(context.Canceled))
	require.False(t, Is(nil, KindUnknown))
}

func TestKindOf_JoinedWithCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("bcrypt: bad prefix")
	err := fmt.Errorf("hasher.Verify: %w: %w", ErrHashingFailure, cause)

	require.ErrorIs(t, err, ErrHashingFailure)
	require.ErrorIs(t, err, cause)
	require.Equal(t, KindHashingFailure, KindOf(err))
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindInvalidEmailFormat, "invalid_email_format"},
		{KindWeakPassword, "weak_password"},
		{KindInvalidCredentials, "invalid_credentials"},
		{KindAccountInactive, "account_inactive"},
		{KindInvalidToken, "invalid_token"},
		{KindTokenExpired, "token_expired"},
		{KindTokenRevoked, "token_revoked"},
		{KindAccountNotFound, "account_not_found"},
		{KindEmailAlreadyExists, "email_already_exists"},
		{KindHashingFailure, "hashing_failure"},
		{Kind(200), "unknown"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.kind.String())
	}
}

func TestError_MessageIsHumanReadable(t *testing.T) {
	t.Parallel()

	require.Equal(t, "invalid email or password", ErrInvalidCredentials.Error())
	require.NotEqual(t, ErrInvalidCredentials.Error(), ErrAccountNotFound.Error())
}
