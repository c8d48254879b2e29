package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"willtank/internal/auth"
	apperrors "willtank/internal/errors"
	"willtank/internal/logger"
	"willtank/internal/mail"
	"willtank/internal/model"
	"willtank/internal/repository"
)

const (
	bcryptCost = 10

	verificationCodeTTL = 15 * time.Minute
	resetTokenTTL       = time.Hour
)

// Session is the token pair handed out on login.
type Session struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int         `json:"expiresIn"`
	User         *model.User `json:"user"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	VerifyEmail(ctx context.Context, email, code string) (*model.User, error)
	ResendVerification(ctx context.Context, email string) error
	RequestLoginCode(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, code, totpToken string) (*Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string, access *auth.Claims) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	codes      auth.CodeStore
	mailer     mail.Sender
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	codes auth.CodeStore,
	mailer mail.Sender,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		codes:      codes,
		mailer:     mailer,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified user and emails a verification code.
func (s *authService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := auth.GenerateNumericCode(6)
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(verificationCodeTTL)

	user := &model.User{
		ID:                    uuid.New(),
		Email:                 email,
		Name:                  strings.TrimSpace(name),
		PasswordHash:          string(hashedPassword),
		VerificationCode:      code,
		VerificationExpiresAt: &expires,
		PlanType:              model.PlanStarter,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The account exists either way; the user can ask for another code.
	if err := s.sendCode(ctx, user, "verification", "Verify your WillTank account", code, verificationCodeTTL); err != nil {
		logger.FromContext(ctx).Error("send verification email", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// VerifyEmail marks the user verified when code matches and has not expired.
func (s *authService) VerifyEmail(ctx context.Context, email, code string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCode
		}
		return nil, err
	}
	if user.EmailVerified {
		return user, nil
	}

	if user.VerificationCode == "" || user.VerificationCode != strings.TrimSpace(code) ||
		user.VerificationExpiresAt == nil || s.now().After(*user.VerificationExpiresAt) {
		return nil, apperrors.ErrInvalidCode
	}

	user.EmailVerified = true
	user.VerificationCode = ""
	user.VerificationExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ResendVerification issues a fresh code. Unknown and already verified
// addresses are accepted silently.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	code, err := auth.GenerateNumericCode(6)
	if err != nil {
		return err
	}
	expires := s.now().Add(verificationCodeTTL)
	user.VerificationCode = code
	user.VerificationExpiresAt = &expires
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return s.sendCode(ctx, user, "verification", "Verify your WillTank account", code, verificationCodeTTL)
}

// RequestLoginCode checks the password and emails a single-use sign-in code.
func (s *authService) RequestLoginCode(ctx context.Context, email, password string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return apperrors.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return apperrors.ErrEmailNotVerified
	}

	code, err := s.codes.Issue(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("issue login code: %w", err)
	}
	return s.sendCode(ctx, user, "login_code", "Your WillTank sign-in code", code, auth.LoginCodeTTL)
}

// Login exchanges a login code, plus a TOTP token when 2FA is on, for tokens.
// The code is checked first so callers without it learn nothing about 2FA,
// and it is only consumed once the second factor has passed.
func (s *authService) Login(ctx context.Context, email, code, totpToken string) (*Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperrors.ErrInvalidCode
	}
	code = strings.TrimSpace(code)

	ok, err := s.codes.Check(ctx, user.Email, code)
	if err != nil {
		return nil, fmt.Errorf("check login code: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidCode
	}

	if user.TwoFactorEnabled {
		if strings.TrimSpace(totpToken) == "" {
			return nil, apperrors.ErrTwoFactorRequired
		}
		if !auth.ValidateTOTP(strings.TrimSpace(totpToken), user.TwoFactorSecret) {
			return nil, apperrors.ErrInvalidTwoFactorToken
		}
	}

	ok, err = s.codes.Consume(ctx, user.Email, code)
	if err != nil {
		return nil, fmt.Errorf("consume login code: %w", err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidCode
	}

	_, accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	logger.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
		User:         user,
	}, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", apperrors.ErrInvalidRefreshToken
	}

	_, accessToken, err := s.jwtService.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout deletes the refresh token and blacklists the current access token
// until it would have expired.
func (s *authService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	if refreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
		if err != nil {
			return apperrors.ErrInvalidRefreshToken
		}
		if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	}

	if access != nil && access.ID != "" && access.ExpiresAt != nil {
		ttl := access.ExpiresAt.Sub(s.now())
		if ttl > 0 {
			if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
				return fmt.Errorf("blacklist access token: %w", err)
			}
		}
	}
	return nil
}

// ForgotPassword emails a reset token. It never reveals whether the address exists.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.FromContext(ctx).Error("forgot password lookup", "error", err)
		}
		return nil
	}

	token, err := auth.GenerateToken(32)
	if err != nil {
		return err
	}
	expires := s.now().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetExpiresAt = &expires
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	body, err := mail.Render("password_reset", map[string]interface{}{
		"Name":    user.Name,
		"Token":   token,
		"Minutes": int(resetTokenTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, mail.Message{To: user.Email, Subject: "Reset your WillTank password", HTMLBody: body}); err != nil {
		logger.FromContext(ctx).Error("send reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token.
func (s *authService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.ErrInvalidResetToken
	}

	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidResetToken
		}
		return err
	}
	if user.ResetExpiresAt == nil || s.now().After(*user.ResetExpiresAt) {
		return apperrors.ErrInvalidResetToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	user.ResetToken = ""
	user.ResetExpiresAt = nil
	return s.userRepo.Update(ctx, user)
}

func (s *authService) sendCode(ctx context.Context, user *model.User, tpl, subject, code string, ttl time.Duration) error {
	body, err := mail.Render(tpl, map[string]interface{}{
		"Name":    user.Name,
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.Message{To: user.Email, Subject: subject, HTMLBody: body})
}
