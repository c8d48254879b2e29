package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"willtank/internal/cache"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	accessID, access, err := svc.GenerateAccessToken(userID, "a@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, accessID)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, accessID, claims.ID)

	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)

	refreshID, refresh, err := svc.GenerateRefreshToken(userID, "a@example.com")
	require.NoError(t, err)
	claims, err = svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, refreshID, claims.ID)
}

func TestJWTService_RejectsForeignAndExpiredTokens(t *testing.T) {
	svc := NewJWTService("secret-a")
	other := NewJWTService("secret-b")

	_, token, err := other.GenerateAccessToken(uuid.New(), "b@example.com")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	svc.now = func() time.Time { return time.Now().Add(-2 * AccessTokenExpiry) }
	_, expired, err := svc.GenerateAccessToken(uuid.New(), "c@example.com")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)
}

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Empty(t, strings.Trim(code, "0123456789"))
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(16)
	require.NoError(t, err)
	b, err := GenerateToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestCodeStore_UnavailableCache(t *testing.T) {
	store := NewCodeStore(nil)

	_, err := store.Issue(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, cache.ErrUnavailable)

	ok, err := store.Consume(context.Background(), "user@example.com", "123456")
	assert.ErrorIs(t, err, cache.ErrUnavailable)
	assert.False(t, ok)

	ok, err = store.Check(context.Background(), "user@example.com", "123456")
	assert.ErrorIs(t, err, cache.ErrUnavailable)
	assert.False(t, ok)
}

func newRedisCodeStore(t *testing.T) (CodeStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := cache.New(srv.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return NewCodeStore(c), srv
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestCodeStore_SingleUse(t *testing.T) {
	store, _ := newRedisCodeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "User@Example.com")
	require.NoError(t, err)

	ok, err := store.Check(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCodeStore_WrongGuessesBurnCode(t *testing.T) {
	tests := []struct {
		name   string
		guess  func(CodeStore, context.Context, string, string) (bool, error)
		misses int
		wantOK bool
	}{
		{"check below limit", CodeStore.Check, MaxCodeAttempts - 1, true},
		{"check at limit", CodeStore.Check, MaxCodeAttempts, false},
		{"consume below limit", CodeStore.Consume, MaxCodeAttempts - 1, true},
		{"consume at limit", CodeStore.Consume, MaxCodeAttempts, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newRedisCodeStore(t)
			ctx := context.Background()
			code, err := store.Issue(ctx, "user@example.com")
			require.NoError(t, err)

			for i := 0; i < tt.misses; i++ {
				ok, err := tt.guess(store, ctx, "user@example.com", wrongCode(code))
				require.NoError(t, err)
				assert.False(t, ok)
			}

			ok, err := store.Consume(ctx, "user@example.com", code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCodeStore_ReissueResetsAttempts(t *testing.T) {
	store, srv := newRedisCodeStore(t)
	ctx := context.Background()

	code, err := store.Issue(ctx, "user@example.com")
	require.NoError(t, err)
	for i := 0; i < MaxCodeAttempts-1; i++ {
		_, err := store.Check(ctx, "user@example.com", wrongCode(code))
		require.NoError(t, err)
	}
	assert.True(t, srv.Exists(attemptKey("user@example.com")))

	code, err = store.Issue(ctx, "user@example.com")
	require.NoError(t, err)
	assert.False(t, srv.Exists(attemptKey("user@example.com")))

	_, err = store.Check(ctx, "user@example.com", wrongCode(code))
	require.NoError(t, err)
	ok, err := store.Consume(ctx, "user@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenStore_BlacklistFailsOpenWithoutRedis(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	assert.NoError(t, store.BlacklistAccessToken(ctx, "jti", time.Minute))
	blacklisted, err := store.IsAccessTokenBlacklisted(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, blacklisted)

	_, _, err = store.GetRefreshToken(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestTOTP(t *testing.T) {
	key, err := GenerateTOTP("user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, key.Secret)
	assert.True(t, strings.HasPrefix(key.OTPAuthURL, "otpauth://totp/"))
	assert.True(t, strings.HasPrefix(key.QRCode, "data:image/png;base64,"))

	code, err := totp.GenerateCode(key.Secret, time.Now())
	require.NoError(t, err)
	assert.True(t, ValidateTOTP(code, key.Secret))
	assert.False(t, ValidateTOTP("", key.Secret))
	assert.False(t, ValidateTOTP(code, ""))
}
