package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
)

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func TestTwoFactorService_EnrolAndDisable(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: string(hash)}

	repo := new(MockUserRepository)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)
	repo.On("Update", ctx, user).Return(nil)
	svc := NewTwoFactorService(repo, nil)

	key, err := svc.GenerateSecret(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, key.Secret)
	assert.Contains(t, key.OTPAuthURL, "otpauth://totp/")
	assert.Contains(t, key.QRCode, "data:image/png;base64,")
	assert.Equal(t, key.Secret, user.TwoFactorSecret)
	assert.False(t, user.TwoFactorEnabled)

	assert.ErrorIs(t, svc.Enable(ctx, user.ID, "000000x"), apperrors.ErrInvalidTwoFactorToken)
	require.NoError(t, svc.Enable(ctx, user.ID, currentCode(t, key.Secret)))
	assert.True(t, user.TwoFactorEnabled)

	_, err = svc.GenerateSecret(ctx, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrTwoFactorAlreadyEnabled)

	assert.ErrorIs(t, svc.Disable(ctx, user.ID, "wrong", currentCode(t, key.Secret)), apperrors.ErrInvalidCredentials)
	assert.ErrorIs(t, svc.Disable(ctx, user.ID, "secret-pass", ""), apperrors.ErrInvalidTwoFactorToken)
	require.NoError(t, svc.Disable(ctx, user.ID, "secret-pass", currentCode(t, key.Secret)))
	assert.False(t, user.TwoFactorEnabled)
	assert.Empty(t, user.TwoFactorSecret)
}

func TestTwoFactorService_EnableWithoutSecret(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: uuid.New()}
	repo := new(MockUserRepository)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)

	err := NewTwoFactorService(repo, nil).Enable(ctx, user.ID, "123456")

	assert.ErrorIs(t, err, apperrors.ErrTwoFactorNotSetup)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTwoFactorService_UnknownUser(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("FindByID", ctx, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := NewTwoFactorService(repo, nil).GenerateSecret(ctx, id)

	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
