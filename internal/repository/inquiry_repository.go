package repository

import (
	"context"

	"gorm.io/gorm"

	"willtank/internal/model"
)

// InquiryRepository stores enterprise contact requests.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *model.EnterpriseInquiry) error
}

type inquiryRepository struct {
	db *gorm.DB
}

// NewInquiryRepository creates a new inquiry repository.
func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &inquiryRepository{db: db}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *model.EnterpriseInquiry) error {
	return r.db.WithContext(ctx).Create(inquiry).Error
}
