package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
)

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestBeneficiaryService_ShareTotals(t *testing.T) {
	userID := uuid.New()
	will := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillDraft}
	existing := []model.Beneficiary{
		{ID: uuid.New(), WillID: will.ID, Name: "Ann", SharePercentage: pct("60")},
		{ID: uuid.New(), WillID: will.ID, Name: "Ben", SharePercentage: pct("30")},
		{ID: uuid.New(), WillID: will.ID, Name: "Cat"},
	}

	tests := []struct {
		name    string
		share   *decimal.Decimal
		wantErr error
	}{
		{"fits under the remaining share", pct("10"), nil},
		{"no share given", nil, nil},
		{"pushes total over 100", pct("10.01"), apperrors.ErrShareTotalExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wills := new(MockWillRepository)
			repo := new(MockBeneficiaryRepository)
			wills.On("FindByIDForUser", mock.Anything, will.ID, userID).Return(will, nil)
			repo.On("ListByWill", mock.Anything, will.ID).Return(existing, nil)
			repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Beneficiary")).Return(nil)

			svc := NewBeneficiaryService(wills, repo)
			b, err := svc.Create(context.Background(), userID, will.ID, BeneficiaryInput{Name: "Dan", SharePercentage: tt.share})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, will.ID, b.WillID)
		})
	}
}

func TestBeneficiaryService_UpdateReplacesOwnShare(t *testing.T) {
	userID := uuid.New()
	will := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillDraft}
	ann := model.Beneficiary{ID: uuid.New(), WillID: will.ID, Name: "Ann", SharePercentage: pct("70")}
	ben := model.Beneficiary{ID: uuid.New(), WillID: will.ID, Name: "Ben", SharePercentage: pct("30")}

	wills := new(MockWillRepository)
	repo := new(MockBeneficiaryRepository)
	wills.On("FindByIDForUser", mock.Anything, will.ID, userID).Return(will, nil)
	annCopy := ann
	repo.On("FindByIDForUser", mock.Anything, ann.ID, userID).Return(&annCopy, nil)
	repo.On("ListByWill", mock.Anything, will.ID).Return([]model.Beneficiary{ann, ben}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Beneficiary")).Return(nil)

	svc := NewBeneficiaryService(wills, repo)
	got, err := svc.Update(context.Background(), userID, ann.ID, BeneficiaryInput{Name: "Ann", SharePercentage: pct("70")})
	require.NoError(t, err)
	assert.True(t, got.SharePercentage.Equal(decimal.NewFromInt(70)))
}

func TestBeneficiaryService_List(t *testing.T) {
	userID := uuid.New()
	will := &model.Will{ID: uuid.New(), UserID: userID}
	wills := new(MockWillRepository)
	repo := new(MockBeneficiaryRepository)
	wills.On("FindByIDForUser", mock.Anything, will.ID, userID).Return(will, nil)
	repo.On("ListByWill", mock.Anything, will.ID).Return([]model.Beneficiary{
		{Name: "Ann", SharePercentage: pct("50")},
		{Name: "Ben", SharePercentage: pct("50.00")},
	}, nil)

	list, err := NewBeneficiaryService(wills, repo).List(context.Background(), userID, will.ID)
	require.NoError(t, err)
	assert.True(t, list.SharesBalanced)
	assert.Equal(t, "100", list.ShareTotal.String())
}

func TestBeneficiaryService_LockedWill(t *testing.T) {
	userID := uuid.New()
	will := &model.Will{ID: uuid.New(), UserID: userID, Status: model.WillLocked}
	wills := new(MockWillRepository)
	wills.On("FindByIDForUser", mock.Anything, will.ID, userID).Return(will, nil)

	_, err := NewBeneficiaryService(wills, new(MockBeneficiaryRepository)).Create(context.Background(), userID, will.ID, BeneficiaryInput{Name: "X"})
	assert.ErrorIs(t, err, apperrors.ErrWillLocked)
}
