package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"willtank/internal/auth"
	"willtank/internal/cache"
	apperrors "willtank/internal/errors"
	"willtank/internal/model"
	"willtank/internal/repository"
)

// TwoFactorService manages TOTP enrolment.
type TwoFactorService interface {
	GenerateSecret(ctx context.Context, userID uuid.UUID) (*auth.TOTPKey, error)
	Enable(ctx context.Context, userID uuid.UUID, token string) error
	Disable(ctx context.Context, userID uuid.UUID, password, token string) error
}

type twoFactorService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewTwoFactorService creates a TwoFactorService.
func NewTwoFactorService(repo repository.UserRepository, cache *cache.Client) TwoFactorService {
	return &twoFactorService{repo: repo, cache: cache}
}

// GenerateSecret stores a pending secret on the user until Enable succeeds.
func (s *twoFactorService) GenerateSecret(ctx context.Context, userID uuid.UUID) (*auth.TOTPKey, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, apperrors.ErrTwoFactorAlreadyEnabled
	}

	key, err := auth.GenerateTOTP(user.Email)
	if err != nil {
		return nil, err
	}
	user.TwoFactorSecret = key.Secret
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *twoFactorService) Enable(ctx context.Context, userID uuid.UUID, token string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorSecret == "" {
		return apperrors.ErrTwoFactorNotSetup
	}
	if !auth.ValidateTOTP(strings.TrimSpace(token), user.TwoFactorSecret) {
		return apperrors.ErrInvalidTwoFactorToken
	}

	user.TwoFactorEnabled = true
	return s.save(ctx, user)
}

// Disable requires the password, and a valid token while 2FA is active.
func (s *twoFactorService) Disable(ctx context.Context, userID uuid.UUID, password, token string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return apperrors.ErrInvalidCredentials
	}
	if user.TwoFactorEnabled && user.TwoFactorSecret != "" {
		if !auth.ValidateTOTP(strings.TrimSpace(token), user.TwoFactorSecret) {
			return apperrors.ErrInvalidTwoFactorToken
		}
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	return s.save(ctx, user)
}

func (s *twoFactorService) load(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *twoFactorService) save(ctx context.Context, user *model.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	return nil
}
