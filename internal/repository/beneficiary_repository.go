package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/model"
)

// BeneficiaryRepository defines beneficiary persistence operations.
type BeneficiaryRepository interface {
	Create(ctx context.Context, b *model.Beneficiary) error
	Update(ctx context.Context, b *model.Beneficiary) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByWill(ctx context.Context, willID uuid.UUID) ([]model.Beneficiary, error)
	// FindByIDForUser resolves ownership through the parent will.
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Beneficiary, error)
}

type beneficiaryRepository struct {
	db *gorm.DB
}

// NewBeneficiaryRepository creates a new beneficiary repository.
func NewBeneficiaryRepository(db *gorm.DB) BeneficiaryRepository {
	return &beneficiaryRepository{db: db}
}

func (r *beneficiaryRepository) Create(ctx context.Context, b *model.Beneficiary) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *beneficiaryRepository) Update(ctx context.Context, b *model.Beneficiary) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *beneficiaryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Beneficiary{}).Error
}

func (r *beneficiaryRepository) ListByWill(ctx context.Context, willID uuid.UUID) ([]model.Beneficiary, error) {
	var out []model.Beneficiary
	if err := r.db.WithContext(ctx).
		Where("will_id = ?", willID).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *beneficiaryRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Beneficiary, error) {
	var b model.Beneficiary
	if err := r.db.WithContext(ctx).
		Joins("JOIN wills ON wills.id = beneficiaries.will_id").
		Where("beneficiaries.id = ? AND wills.user_id = ?", id, userID).
		First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
