package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "willtank/internal/errors"
	"willtank/internal/model"
	"willtank/internal/repository"
)

// ReminderInput carries reminder fields for create and update.
type ReminderInput struct {
	Title       string
	Description string
	Date        string
	Time        string
	Repeat      model.RepeatCadence
	Completed   bool
}

// ReminderService manages a user's reminders. Repeat is stored as a label only.
type ReminderService interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Reminder, error)
	Create(ctx context.Context, userID uuid.UUID, in ReminderInput) (*model.Reminder, error)
	Update(ctx context.Context, userID, id uuid.UUID, in ReminderInput) (*model.Reminder, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Toggle(ctx context.Context, userID, id uuid.UUID) (*model.Reminder, error)
}

type reminderService struct {
	repo repository.ReminderRepository
}

// NewReminderService creates a ReminderService.
func NewReminderService(repo repository.ReminderRepository) ReminderService {
	return &reminderService{repo: repo}
}

func (s *reminderService) List(ctx context.Context, userID uuid.UUID) ([]model.Reminder, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *reminderService) Create(ctx context.Context, userID uuid.UUID, in ReminderInput) (*model.Reminder, error) {
	r := &model.Reminder{ID: uuid.New(), UserID: userID}
	applyReminder(r, in)
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return r, nil
}

func (s *reminderService) Update(ctx context.Context, userID, id uuid.UUID, in ReminderInput) (*model.Reminder, error) {
	r, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	applyReminder(r, in)
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return r, nil
}

func (s *reminderService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrReminderNotFound
		}
		return err
	}
	return nil
}

func (s *reminderService) Toggle(ctx context.Context, userID, id uuid.UUID) (*model.Reminder, error) {
	r, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	r.Completed = !r.Completed
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return r, nil
}

func applyReminder(r *model.Reminder, in ReminderInput) {
	r.Title = in.Title
	r.Description = in.Description
	r.Date = in.Date
	r.Time = in.Time
	r.Repeat = in.Repeat
	if r.Repeat == "" {
		r.Repeat = model.RepeatNever
	}
	r.Completed = in.Completed
}

func (s *reminderService) find(ctx context.Context, userID, id uuid.UUID) (*model.Reminder, error) {
	r, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReminderNotFound
		}
		return nil, err
	}
	return r, nil
}
