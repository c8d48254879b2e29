package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"willtank/internal/model"
)

// ReminderRepository defines reminder persistence operations.
type ReminderRepository interface {
	Create(ctx context.Context, r *model.Reminder) error
	Update(ctx context.Context, r *model.Reminder) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Reminder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reminder, error)
}

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, rem *model.Reminder) error {
	return r.db.WithContext(ctx).Create(rem).Error
}

func (r *reminderRepository) Update(ctx context.Context, rem *model.Reminder) error {
	return r.db.WithContext(ctx).Save(rem).Error
}

func (r *reminderRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Reminder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reminderRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Reminder, error) {
	var rem model.Reminder
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rem).Error; err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *reminderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reminder, error) {
	var out []model.Reminder
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date, time").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
