package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/model"
)

// AssetRepository defines asset persistence operations.
type AssetRepository interface {
	Create(ctx context.Context, a *model.Asset) error
	Update(ctx context.Context, a *model.Asset) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByWill(ctx context.Context, willID uuid.UUID) ([]model.Asset, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Asset, error)
}

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new asset repository.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, a *model.Asset) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *assetRepository) Update(ctx context.Context, a *model.Asset) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *assetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Asset{}).Error
}

func (r *assetRepository) ListByWill(ctx context.Context, willID uuid.UUID) ([]model.Asset, error) {
	var out []model.Asset
	if err := r.db.WithContext(ctx).
		Where("will_id = ?", willID).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Asset, error) {
	var a model.Asset
	if err := r.db.WithContext(ctx).
		Joins("JOIN wills ON wills.id = assets.will_id").
		Where("assets.id = ? AND wills.user_id = ?", id, userID).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
