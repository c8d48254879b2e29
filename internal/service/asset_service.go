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

// AssetInput carries asset fields for create and update.
type AssetInput struct {
	Name           string
	Type           string
	Description    string
	EstimatedValue decimal.Decimal
	Location       string
}

// AssetService manages property listed in a will.
type AssetService interface {
	List(ctx context.Context, userID, willID uuid.UUID) ([]model.Asset, error)
	Create(ctx context.Context, userID, willID uuid.UUID, in AssetInput) (*model.Asset, error)
	Update(ctx context.Context, userID, id uuid.UUID, in AssetInput) (*model.Asset, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type assetService struct {
	wills repository.WillRepository
	repo  repository.AssetRepository
}

// NewAssetService creates an AssetService.
func NewAssetService(wills repository.WillRepository, repo repository.AssetRepository) AssetService {
	return &assetService{wills: wills, repo: repo}
}

func (s *assetService) List(ctx context.Context, userID, willID uuid.UUID) ([]model.Asset, error) {
	if _, err := ownedWill(ctx, s.wills, userID, willID, false); err != nil {
		return nil, err
	}
	return s.repo.ListByWill(ctx, willID)
}

func (s *assetService) Create(ctx context.Context, userID, willID uuid.UUID, in AssetInput) (*model.Asset, error) {
	if _, err := ownedWill(ctx, s.wills, userID, willID, true); err != nil {
		return nil, err
	}

	a := &model.Asset{
		ID:             uuid.New(),
		WillID:         willID,
		Name:           in.Name,
		Type:           in.Type,
		Description:    in.Description,
		EstimatedValue: in.EstimatedValue,
		Location:       in.Location,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create asset: %w", err)
	}
	return a, nil
}

func (s *assetService) Update(ctx context.Context, userID, id uuid.UUID, in AssetInput) (*model.Asset, error) {
	a, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := ownedWill(ctx, s.wills, userID, a.WillID, true); err != nil {
		return nil, err
	}

	a.Name = in.Name
	a.Type = in.Type
	a.Description = in.Description
	a.EstimatedValue = in.EstimatedValue
	a.Location = in.Location
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	return a, nil
}

func (s *assetService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	a, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := ownedWill(ctx, s.wills, userID, a.WillID, true); err != nil {
		return err
	}
	return s.repo.Delete(ctx, a.ID)
}

func (s *assetService) find(ctx context.Context, userID, id uuid.UUID) (*model.Asset, error) {
	a, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, err
	}
	return a, nil
}
