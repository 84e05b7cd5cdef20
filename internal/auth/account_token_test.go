package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAccountTokens(t *testing.T, clock func() time.Time) *AccountTokenService {
	t.Helper()

	svc, err := NewAccountTokenService(AccountTokenConfig{
		Secret: "super-secret",
		Expiry: 72 * time.Hour,
		Clock:  clock,
	})
	require.NoError(t, err)
	return svc
}

func TestAccountTokenRoundTrip(t *testing.T) {
	svc := newTestAccountTokens(t, nil)
	user := testUser()
	user.Password = "$2a$10$hash"

	token, err := svc.Make(user)
	require.NoError(t, err)
	require.True(t, svc.Check(user, token))
}

func TestAccountTokenRejectsTampering(t *testing.T) {
	svc := newTestAccountTokens(t, nil)
	user := testUser()

	token, err := svc.Make(user)
	require.NoError(t, err)

	require.False(t, svc.Check(user, token+"a"))
	require.False(t, svc.Check(user, "not-a-token"))
	require.False(t, svc.Check(user, ""))

	other := testUser()
	other.ID = "22222222-2222-2222-2222-222222222222"
	require.False(t, svc.Check(other, token))
}

func TestAccountTokenInvalidatedByStateChange(t *testing.T) {
	svc := newTestAccountTokens(t, nil)

	user := testUser()
	user.Password = "$2a$10$original"
	user.EmailVerified = false

	token, err := svc.Make(user)
	require.NoError(t, err)
	require.True(t, svc.Check(user, token))

	// Password change burns the token.
	changed := *user
	changed.Password = "$2a$10$rotated"
	require.False(t, svc.Check(&changed, token))

	// Flipping the verified flag burns it too, which makes verification
	// links single-use.
	verified := *user
	verified.EmailVerified = true
	require.False(t, svc.Check(&verified, token))

	// So does logging in.
	loggedIn := *user
	now := time.Now()
	loggedIn.LastLoginAt = &now
	require.False(t, svc.Check(&loggedIn, token))
}

func TestAccountTokenExpiry(t *testing.T) {
	current := time.Now()
	svc := newTestAccountTokens(t, func() time.Time { return current })
	user := testUser()

	token, err := svc.Make(user)
	require.NoError(t, err)

	current = current.Add(71 * time.Hour)
	require.True(t, svc.Check(user, token))

	current = current.Add(2 * time.Hour)
	require.False(t, svc.Check(user, token))
}

func TestAccountTokenRejectsFutureTimestamp(t *testing.T) {
	current := time.Now()
	svc := newTestAccountTokens(t, func() time.Time { return current })
	user := testUser()

	token, err := svc.Make(user)
	require.NoError(t, err)

	current = current.Add(-time.Hour)
	require.False(t, svc.Check(user, token))
}

func TestEncodeDecodeUID(t *testing.T) {
	id := "11111111-1111-1111-1111-111111111111"
	encoded := EncodeUID(id)
	require.NotEqual(t, id, encoded)

	decoded, err := DecodeUID(encoded)
	require.NoError(t, err)
	require.Equal(t, id, decoded)

	_, err = DecodeUID("%%%")
	require.Error(t, err)

	_, err = DecodeUID("")
	require.Error(t, err)
}
