package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/model"
)

// DocumentRepository defines will document persistence operations.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.WillDocument) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.WillDocument, error)
	ListByWill(ctx context.Context, willID uuid.UUID) ([]model.WillDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.WillDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.WillDocument, error) {
	var doc model.WillDocument
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByWill(ctx context.Context, willID uuid.UUID) ([]model.WillDocument, error) {
	var docs []model.WillDocument
	if err := r.db.WithContext(ctx).
		Where("will_id = ?", willID).
		Order("uploaded_at").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.WillDocument{}).Error
}
