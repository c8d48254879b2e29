package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
	"willtank/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// BeneficiaryInput carries beneficiary fields for create and update.
type BeneficiaryInput struct {
	Name            string
	Relationship    string
	Email           string
	Phone           string
	SharePercentage *decimal.Decimal
	Location        string
}

// BeneficiaryList is a will's beneficiaries with the share summary.
type BeneficiaryList struct {
	Beneficiaries  []model.Beneficiary `json:"beneficiaries"`
	ShareTotal     decimal.Decimal     `json:"shareTotal"`
	SharesBalanced bool                `json:"sharesBalanced"`
}

// BeneficiaryService manages the people named in a will.
type BeneficiaryService interface {
	List(ctx context.Context, userID, willID uuid.UUID) (*BeneficiaryList, error)
	Create(ctx context.Context, userID, willID uuid.UUID, in BeneficiaryInput) (*model.Beneficiary, error)
	Update(ctx context.Context, userID, id uuid.UUID, in BeneficiaryInput) (*model.Beneficiary, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type beneficiaryService struct {
	wills repository.WillRepository
	repo  repository.BeneficiaryRepository
}

// NewBeneficiaryService creates a BeneficiaryService.
func NewBeneficiaryService(wills repository.WillRepository, repo repository.BeneficiaryRepository) BeneficiaryService {
	return &beneficiaryService{wills: wills, repo: repo}
}

func (s *beneficiaryService) List(ctx context.Context, userID, willID uuid.UUID) (*BeneficiaryList, error) {
	if _, err := s.editableWill(ctx, userID, willID, false); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByWill(ctx, willID)
	if err != nil {
		return nil, err
	}
	total := model.ShareTotal(list)
	return &BeneficiaryList{
		Beneficiaries:  list,
		ShareTotal:     total,
		SharesBalanced: total.Equal(hundred),
	}, nil
}

func (s *beneficiaryService) Create(ctx context.Context, userID, willID uuid.UUID, in BeneficiaryInput) (*model.Beneficiary, error) {
	if _, err := s.editableWill(ctx, userID, willID, true); err != nil {
		return nil, err
	}

	b := &model.Beneficiary{ID: uuid.New(), WillID: willID}
	applyBeneficiary(b, in)
	if err := s.checkShares(ctx, willID, b); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create beneficiary: %w", err)
	}
	return b, nil
}

func (s *beneficiaryService) Update(ctx context.Context, userID, id uuid.UUID, in BeneficiaryInput) (*model.Beneficiary, error) {
	b, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableWill(ctx, userID, b.WillID, true); err != nil {
		return nil, err
	}

	applyBeneficiary(b, in)
	if err := s.checkShares(ctx, b.WillID, b); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update beneficiary: %w", err)
	}
	return b, nil
}

func (s *beneficiaryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	b, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := s.editableWill(ctx, userID, b.WillID, true); err != nil {
		return err
	}
	return s.repo.Delete(ctx, b.ID)
}

func applyBeneficiary(b *model.Beneficiary, in BeneficiaryInput) {
	b.Name = in.Name
	b.Relationship = in.Relationship
	b.Email = in.Email
	b.Phone = in.Phone
	b.SharePercentage = in.SharePercentage
	b.Location = in.Location
}

// checkShares rejects a change that would push the will's total above 100.
func (s *beneficiaryService) checkShares(ctx context.Context, willID uuid.UUID, changed *model.Beneficiary) error {
	existing, err := s.repo.ListByWill(ctx, willID)
	if err != nil {
		return err
	}
	merged := make([]model.Beneficiary, 0, len(existing)+1)
	for _, b := range existing {
		if b.ID != changed.ID {
			merged = append(merged, b)
		}
	}
	merged = append(merged, *changed)

	if model.ShareTotal(merged).GreaterThan(hundred) {
		return apperrors.ErrShareTotalExceeded
	}
	return nil
}

func (s *beneficiaryService) find(ctx context.Context, userID, id uuid.UUID) (*model.Beneficiary, error) {
	b, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBeneficiaryNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *beneficiaryService) editableWill(ctx context.Context, userID, willID uuid.UUID, mutating bool) (*model.Will, error) {
	return ownedWill(ctx, s.wills, userID, willID, mutating)
}

// ownedWill loads a will for its owner and, when mutating, rejects locked wills.
func ownedWill(ctx context.Context, wills repository.WillRepository, userID, willID uuid.UUID, mutating bool) (*model.Will, error) {
	will, err := wills.FindByIDForUser(ctx, willID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWillNotFound
		}
		return nil, err
	}
	if mutating && will.IsLocked() {
		return nil, apperrors.ErrWillLocked
	}
	return will, nil
}
