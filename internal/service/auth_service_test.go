package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"willtank/internal/auth"
	apperrors "willtank/internal/errors"
	"willtank/internal/mail"
	"willtank/internal/model"
)

type authFixture struct {
	repo   *MockUserRepository
	tokens *MockTokenStore
	codes  *MockCodeStore
	mailer *MockMailer
	jwt    *auth.JWTService
	svc    *authService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		repo:   new(MockUserRepository),
		tokens: new(MockTokenStore),
		codes:  new(MockCodeStore),
		mailer: new(MockMailer),
		jwt:    auth.NewJWTService("test-secret"),
	}
	f.svc = NewAuthService(f.repo, f.jwt, f.tokens, f.codes, f.mailer).(*authService)
	return f
}

func verifiedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{
		ID:            uuid.New(),
		Email:         "test@example.com",
		Name:          "Test User",
		PasswordHash:  string(hash),
		EmailVerified: true,
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMock     func(*authFixture)
		expectedError error
	}{
		{
			name:  "successful registration",
			email: " Test@Example.com ",
			setupMock: func(f *authFixture) {
				f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				f.mailer.On("Send", mock.Anything, mock.AnythingOfType("mail.Message")).Return(nil)
			},
		},
		{
			name:  "mail failure does not fail registration",
			email: "test@example.com",
			setupMock: func(f *authFixture) {
				f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				f.repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				f.mailer.On("Send", mock.Anything, mock.AnythingOfType("mail.Message")).Return(errors.New("smtp down"))
			},
		},
		{
			name:  "user already exists",
			email: "test@example.com",
			setupMock: func(f *authFixture) {
				f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{Email: "test@example.com"}, nil)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMock(f)

			user, err := f.svc.Register(context.Background(), tt.email, "password123", "Test User")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "test@example.com", user.Email)
				assert.False(t, user.EmailVerified)
				assert.Len(t, user.VerificationCode, 6)
				require.NotNil(t, user.VerificationExpiresAt)
				assert.WithinDuration(t, time.Now().Add(15*time.Minute), *user.VerificationExpiresAt, time.Minute)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
			}
			f.repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name    string
		code    string
		expires *time.Time
		wantErr error
	}{
		{"valid code", "123456", &future, nil},
		{"wrong code", "654321", &future, apperrors.ErrInvalidCode},
		{"expired code", "123456", &past, apperrors.ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			user := &model.User{ID: uuid.New(), Email: "test@example.com", VerificationCode: "123456", VerificationExpiresAt: tt.expires}
			f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
			if tt.wantErr == nil {
				f.repo.On("Update", mock.Anything, user).Return(nil)
			}

			got, err := f.svc.VerifyEmail(context.Background(), "test@example.com", tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.EmailVerified)
			assert.Empty(t, got.VerificationCode)
		})
	}
}

func TestAuthService_RequestLoginCode(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		verified  bool
		found     bool
		expectErr error
	}{
		{"unknown email", "password123", true, false, apperrors.ErrInvalidCredentials},
		{"wrong password", "nope", true, true, apperrors.ErrInvalidCredentials},
		{"unverified email", "password123", false, true, apperrors.ErrEmailNotVerified},
		{"sends code", "password123", true, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			user := verifiedUser(t, "password123")
			user.EmailVerified = tt.verified
			if tt.found {
				f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
			} else {
				f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
			}
			if tt.expectErr == nil {
				f.codes.On("Issue", mock.Anything, "test@example.com").Return("482913", nil)
				f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m mail.Message) bool {
					return m.To == "test@example.com"
				})).Return(nil)
			}

			err := f.svc.RequestLoginCode(context.Background(), "test@example.com", tt.password)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				f.codes.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			f.codes.AssertExpectations(t)
			f.mailer.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Run("issues tokens for a valid code", func(t *testing.T) {
		f := newAuthFixture()
		user := verifiedUser(t, "password123")
		f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
		f.codes.On("Check", mock.Anything, "test@example.com", "123456").Return(true, nil)
		f.codes.On("Consume", mock.Anything, "test@example.com", "123456").Return(true, nil)
		f.tokens.On("StoreRefreshToken", mock.Anything, mock.AnythingOfType("string"), user.ID, user.Email, auth.RefreshTokenExpiry).Return(nil)

		session, err := f.svc.Login(context.Background(), "test@example.com", " 123456 ", "")
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.Equal(t, int(auth.AccessTokenExpiry.Seconds()), session.ExpiresIn)

		claims, err := f.jwt.ValidateToken(session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		f.tokens.AssertExpectations(t)
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(verifiedUser(t, "pw"), nil)
		f.codes.On("Check", mock.Anything, "test@example.com", "000000").Return(false, nil)

		_, err := f.svc.Login(context.Background(), "test@example.com", "000000", "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
		f.codes.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything)
		f.tokens.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("code lost between check and consume", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(verifiedUser(t, "pw"), nil)
		f.codes.On("Check", mock.Anything, "test@example.com", "123456").Return(true, nil)
		f.codes.On("Consume", mock.Anything, "test@example.com", "123456").Return(false, nil)

		_, err := f.svc.Login(context.Background(), "test@example.com", "123456", "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
	})

	t.Run("hides two factor state until the code matches", func(t *testing.T) {
		f := newAuthFixture()
		user := verifiedUser(t, "pw")
		key, err := auth.GenerateTOTP(user.Email)
		require.NoError(t, err)
		user.TwoFactorEnabled = true
		user.TwoFactorSecret = key.Secret
		f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
		f.codes.On("Check", mock.Anything, "test@example.com", "000000").Return(false, nil)

		for _, token := range []string{"", "000000"} {
			_, err = f.svc.Login(context.Background(), "test@example.com", "000000", token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCode)
		}
	})

	t.Run("requires totp without consuming the code", func(t *testing.T) {
		f := newAuthFixture()
		user := verifiedUser(t, "pw")
		key, err := auth.GenerateTOTP(user.Email)
		require.NoError(t, err)
		user.TwoFactorEnabled = true
		user.TwoFactorSecret = key.Secret
		f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
		f.codes.On("Check", mock.Anything, "test@example.com", "123456").Return(true, nil)

		_, err = f.svc.Login(context.Background(), "test@example.com", "123456", "")
		assert.ErrorIs(t, err, apperrors.ErrTwoFactorRequired)

		_, err = f.svc.Login(context.Background(), "test@example.com", "123456", "000000")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTwoFactorToken)
		f.codes.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything)

		token, err := totp.GenerateCode(key.Secret, time.Now())
		require.NoError(t, err)
		f.codes.On("Consume", mock.Anything, "test@example.com", "123456").Return(true, nil)
		f.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, user.ID, user.Email, auth.RefreshTokenExpiry).Return(nil)

		session, err := f.svc.Login(context.Background(), "test@example.com", "123456", token)
		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	userID := uuid.New()

	t.Run("valid refresh token", func(t *testing.T) {
		f := newAuthFixture()
		tokenID, refresh, err := f.jwt.GenerateRefreshToken(userID, "test@example.com")
		require.NoError(t, err)
		f.tokens.On("GetRefreshToken", mock.Anything, tokenID).Return(userID, "test@example.com", nil)

		access, err := f.svc.RefreshToken(context.Background(), refresh)
		require.NoError(t, err)
		claims, err := f.jwt.ValidateToken(access)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		f := newAuthFixture()
		tokenID, refresh, err := f.jwt.GenerateRefreshToken(userID, "test@example.com")
		require.NoError(t, err)
		f.tokens.On("GetRefreshToken", mock.Anything, tokenID).Return(uuid.Nil, "", auth.ErrRefreshTokenNotFound)

		_, err = f.svc.RefreshToken(context.Background(), refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := newAuthFixture()
		_, access, err := f.jwt.GenerateAccessToken(userID, "test@example.com")
		require.NoError(t, err)

		_, err = f.svc.RefreshToken(context.Background(), access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	userID := uuid.New()
	refreshID, refresh, err := f.jwt.GenerateRefreshToken(userID, "test@example.com")
	require.NoError(t, err)
	_, access, err := f.jwt.GenerateAccessToken(userID, "test@example.com")
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(access)
	require.NoError(t, err)

	f.tokens.On("DeleteRefreshToken", mock.Anything, refreshID).Return(nil)
	f.tokens.On("BlacklistAccessToken", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= auth.AccessTokenExpiry
	})).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), refresh, claims))
	f.tokens.AssertExpectations(t)
}

func TestAuthService_PasswordReset(t *testing.T) {
	t.Run("unknown email is accepted silently", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		assert.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("forgot then reset", func(t *testing.T) {
		f := newAuthFixture()
		user := verifiedUser(t, "old-password")
		f.repo.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
		f.repo.On("Update", mock.Anything, user).Return(nil)
		f.mailer.On("Send", mock.Anything, mock.AnythingOfType("mail.Message")).Return(nil)

		require.NoError(t, f.svc.ForgotPassword(context.Background(), "test@example.com"))
		require.NotEmpty(t, user.ResetToken)
		token := user.ResetToken

		f.repo.On("FindByResetToken", mock.Anything, token).Return(user, nil)
		require.NoError(t, f.svc.ResetPassword(context.Background(), token, "new-password"))
		assert.Empty(t, user.ResetToken)
		assert.Nil(t, user.ResetExpiresAt)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password")))
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture()
		past := time.Now().Add(-time.Minute)
		user := &model.User{ID: uuid.New(), ResetToken: "tok", ResetExpiresAt: &past}
		f.repo.On("FindByResetToken", mock.Anything, "tok").Return(user, nil)

		err := f.svc.ResetPassword(context.Background(), "tok", "new-password")
		assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
	})
}
