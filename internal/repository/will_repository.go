package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/model"
)

// WillRepository defines will persistence operations. Every lookup is scoped
// to the owning user.
type WillRepository interface {
	Create(ctx context.Context, will *model.Will) error
	Update(ctx context.Context, will *model.Will) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Will, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Will, error)
	FindLatestDraft(ctx context.Context, userID uuid.UUID) (*model.Will, error)
	// DeleteCascade removes the will with its documents, beneficiaries and assets in one transaction.
	DeleteCascade(ctx context.Context, id, userID uuid.UUID) error
}

type willRepository struct {
	db *gorm.DB
}

// NewWillRepository creates a new will repository.
func NewWillRepository(db *gorm.DB) WillRepository {
	return &willRepository{db: db}
}

func (r *willRepository) Create(ctx context.Context, will *model.Will) error {
	return r.db.WithContext(ctx).Create(will).Error
}

// Update saves every column; concurrent writers follow last write wins.
func (r *willRepository) Update(ctx context.Context, will *model.Will) error {
	return r.db.WithContext(ctx).Save(will).Error
}

func (r *willRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Will, error) {
	var will model.Will
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&will).Error; err != nil {
		return nil, err
	}
	return &will, nil
}

func (r *willRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Will, error) {
	var wills []model.Will
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&wills).Error; err != nil {
		return nil, err
	}
	return wills, nil
}

func (r *willRepository) FindLatestDraft(ctx context.Context, userID uuid.UUID) (*model.Will, error) {
	var will model.Will
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.WillDraft).
		Order("updated_at DESC").
		First(&will).Error; err != nil {
		return nil, err
	}
	return &will, nil
}

func (r *willRepository) DeleteCascade(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("will_id = ?", id).Delete(&model.WillDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("will_id = ?", id).Delete(&model.Beneficiary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("will_id = ?", id).Delete(&model.Asset{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Will{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
