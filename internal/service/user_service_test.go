package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
)

func TestUserService_GetUserIsCached(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	user := &model.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada", PlanType: model.PlanStarter}
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()

	svc := NewUserService(repo, newTestCache(t))

	first, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	second, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ada", first.Name)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, model.PlanStarter, second.PlanType)
	repo.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestUserService_UpdateProfileRefreshesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	user := &model.User{ID: uuid.New(), Name: "Ada"}
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	repo.On("Update", mock.Anything, user).Return(nil)

	svc := NewUserService(repo, newTestCache(t))
	_, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, "  Ada Lovelace  ")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
}

func TestUserService_CompleteOnboarding(t *testing.T) {
	ctx := context.Background()

	t.Run("marks once", func(t *testing.T) {
		repo := new(MockUserRepository)
		user := &model.User{ID: uuid.New()}
		repo.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		repo.On("Update", mock.Anything, user).Return(nil).Once()
		svc := NewUserService(repo, nil)

		got, err := svc.CompleteOnboarding(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.OnboardingCompleted)

		_, err = svc.CompleteOnboarding(ctx, user.ID)
		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
		svc := NewUserService(repo, nil)

		_, err := svc.CompleteOnboarding(ctx, id)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		_, err = svc.GetUser(ctx, id)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
