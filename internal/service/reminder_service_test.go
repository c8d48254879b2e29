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

type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, r *model.Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReminderRepository) Update(ctx context.Context, r *model.Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReminderRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockReminderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Reminder, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reminder), args.Error(1)
}

func (m *MockReminderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reminder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reminder), args.Error(1)
}

func TestReminderService_CreateDefaultsRepeat(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	repo := new(MockReminderRepository)
	repo.On("Create", ctx, mock.AnythingOfType("*model.Reminder")).Return(nil)

	r, err := NewReminderService(repo).Create(ctx, userID, ReminderInput{
		Title: "Review will",
		Date:  "2026-01-15",
		Time:  "09:30",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, userID, r.UserID)
	assert.Equal(t, model.RepeatNever, r.Repeat)
	assert.False(t, r.Completed)
}

func TestReminderService_Toggle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	existing := &model.Reminder{ID: uuid.New(), UserID: userID, Title: "Call lawyer", Repeat: model.RepeatYearly}

	repo := new(MockReminderRepository)
	repo.On("FindByIDForUser", ctx, existing.ID, userID).Return(existing, nil)
	repo.On("Update", ctx, existing).Return(nil)
	svc := NewReminderService(repo)

	r, err := svc.Toggle(ctx, userID, existing.ID)
	require.NoError(t, err)
	assert.True(t, r.Completed)

	r, err = svc.Toggle(ctx, userID, existing.ID)
	require.NoError(t, err)
	assert.False(t, r.Completed)
	assert.Equal(t, model.RepeatYearly, r.Repeat)
}

func TestReminderService_NotFound(t *testing.T) {
	ctx := context.Background()
	userID, id := uuid.New(), uuid.New()

	repo := new(MockReminderRepository)
	repo.On("FindByIDForUser", ctx, id, userID).Return(nil, gorm.ErrRecordNotFound)
	repo.On("Delete", ctx, id, userID).Return(gorm.ErrRecordNotFound)
	svc := NewReminderService(repo)

	_, err := svc.Update(ctx, userID, id, ReminderInput{Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrReminderNotFound)

	_, err = svc.Toggle(ctx, userID, id)
	assert.ErrorIs(t, err, apperrors.ErrReminderNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, userID, id), apperrors.ErrReminderNotFound)
}
