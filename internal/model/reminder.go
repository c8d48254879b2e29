package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepeatCadence is a stored label; reminders are never expanded into occurrences.
type RepeatCadence string

const (
	RepeatNever   RepeatCadence = "never"
	RepeatDaily   RepeatCadence = "daily"
	RepeatWeekly  RepeatCadence = "weekly"
	RepeatMonthly RepeatCadence = "monthly"
	RepeatYearly  RepeatCadence = "yearly"
)

// Reminder is a user-managed to-do with an optional cadence label.
type Reminder struct {
	ID          uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID     `json:"userId" gorm:"type:char(36);not null;index"`
	Title       string        `json:"title" gorm:"size:255;not null"`
	Description string        `json:"description,omitempty" gorm:"type:text"`
	Date        string        `json:"date" gorm:"size:10;not null"` // YYYY-MM-DD
	Time        string        `json:"time,omitempty" gorm:"size:5"` // HH:MM
	Repeat      RepeatCadence `json:"repeat" gorm:"size:10;not null;default:'never'"`
	Completed   bool          `json:"completed" gorm:"not null;default:false"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
