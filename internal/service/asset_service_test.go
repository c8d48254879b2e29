package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
)

// MockAssetRepository is a mock implementation of AssetRepository.
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) Create(ctx context.Context, a *model.Asset) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssetRepository) Update(ctx context.Context, a *model.Asset) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssetRepository) ListByWill(ctx context.Context, willID uuid.UUID) ([]model.Asset, error) {
	args := m.Called(ctx, willID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Asset), args.Error(1)
}

func (m *MockAssetRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Asset, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func TestAssetService_Create(t *testing.T) {
	userID := uuid.New()
	draft := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillDraft}
	locked := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillLocked}

	tests := []struct {
		name    string
		willID  uuid.UUID
		setup   func(wills *MockWillRepository)
		wantErr error
	}{
		{
			name:   "draft will",
			willID: draft.ID,
			setup: func(wills *MockWillRepository) {
				wills.On("FindByIDForUser", mock.Anything, draft.ID, userID).Return(draft, nil)
			},
		},
		{
			name:   "locked will",
			willID: locked.ID,
			setup: func(wills *MockWillRepository) {
				wills.On("FindByIDForUser", mock.Anything, locked.ID, userID).Return(locked, nil)
			},
			wantErr: apperrors.ErrWillLocked,
		},
		{
			name:   "someone else's will",
			willID: uuid.New(),
			setup: func(wills *MockWillRepository) {
				wills.On("FindByIDForUser", mock.Anything, mock.Anything, userID).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrWillNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wills := new(MockWillRepository)
			repo := new(MockAssetRepository)
			tt.setup(wills)
			repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Asset")).Return(nil)

			svc := NewAssetService(wills, repo)
			a, err := svc.Create(context.Background(), userID, tt.willID, AssetInput{
				Name:           "House",
				Type:           "real_estate",
				EstimatedValue: decimal.NewFromInt(350000),
				Location:       "1 Elm Street",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, a.ID)
			assert.Equal(t, draft.ID, a.WillID)
			assert.True(t, a.EstimatedValue.Equal(decimal.NewFromInt(350000)))
		})
	}
}

func TestAssetService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	will := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillCompleted}
	asset := &model.Asset{ID: uuid.New(), WillID: will.ID, Name: "Car"}

	wills := new(MockWillRepository)
	repo := new(MockAssetRepository)
	wills.On("FindByIDForUser", mock.Anything, will.ID, userID).Return(will, nil)
	repo.On("FindByIDForUser", mock.Anything, asset.ID, userID).Return(asset, nil)
	repo.On("Update", mock.Anything, asset).Return(nil)
	repo.On("Delete", mock.Anything, asset.ID).Return(nil)
	svc := NewAssetService(wills, repo)

	got, err := svc.Update(ctx, userID, asset.ID, AssetInput{Name: "Vintage car", Type: "vehicle", EstimatedValue: decimal.NewFromInt(12000)})
	require.NoError(t, err)
	assert.Equal(t, "Vintage car", got.Name)
	assert.Equal(t, "vehicle", got.Type)

	require.NoError(t, svc.Delete(ctx, userID, asset.ID))
	repo.AssertExpectations(t)
}

func TestAssetService_ForeignAssetIsNotFound(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	id := uuid.New()

	repo := new(MockAssetRepository)
	repo.On("FindByIDForUser", mock.Anything, id, userID).Return(nil, gorm.ErrRecordNotFound)
	svc := NewAssetService(new(MockWillRepository), repo)

	_, err := svc.Update(ctx, userID, id, AssetInput{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, userID, id), apperrors.ErrAssetNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAssetService_LockedWillKeepsAssets(t *testing.T) {
	userID := uuid.New()
	will := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillLocked}
	asset := &model.Asset{ID: uuid.New(), WillID: will.ID}

	wills := new(MockWillRepository)
	repo := new(MockAssetRepository)
	wills.On("FindByIDForUser", mock.Anything, will.ID, userID).Return(will, nil)
	repo.On("FindByIDForUser", mock.Anything, asset.ID, userID).Return(asset, nil)
	repo.On("ListByWill", mock.Anything, will.ID).Return([]model.Asset{*asset}, nil)
	svc := NewAssetService(wills, repo)

	list, err := svc.List(context.Background(), userID, will.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Delete(context.Background(), userID, asset.ID), apperrors.ErrWillLocked)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
