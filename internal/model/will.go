package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"willtank/internal/progress"
)

// WillStatus is the lifecycle state of a will.
type WillStatus string

const (
	WillDraft     WillStatus = "draft"
	WillCompleted WillStatus = "completed"
	WillLocked    WillStatus = "locked"
)

// Will is a user's will document with its wizard progress.
type Will struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID      `json:"userId" gorm:"type:char(36);not null;index"`
	Title        string         `json:"title" gorm:"size:255;not null"`
	Content      string         `json:"content" gorm:"type:text"`
	Status       WillStatus     `json:"status" gorm:"size:20;not null;default:'draft';index"`
	TemplateID   *string        `json:"templateId,omitempty" gorm:"size:64"`
	VideoURL     *string        `json:"videoUrl,omitempty" gorm:"size:1024"`
	ContactInfo  datatypes.JSON `json:"contactInfo,omitempty"`
	ProgressStep progress.Step  `json:"progressStep" gorm:"size:32;not null;default:'template'"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (w *Will) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// HasContent reports whether the will text is non-blank.
func (w *Will) HasContent() bool {
	return strings.TrimSpace(w.Content) != ""
}

// HasVideo reports whether a video testimony is attached.
func (w *Will) HasVideo() bool {
	return w.VideoURL != nil && *w.VideoURL != ""
}

// IsLocked reports whether edits are currently blocked.
func (w *Will) IsLocked() bool {
	return w.Status == WillLocked
}
