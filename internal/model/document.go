package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WillDocument is a file attached to a will. FilePath is the storage key.
type WillDocument struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	WillID     uuid.UUID `json:"willId" gorm:"type:char(36);not null;index"`
	UserID     uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	FileName   string    `json:"fileName" gorm:"size:255;not null"`
	MimeType   string    `json:"mimeType" gorm:"size:127;not null"`
	Size       int64     `json:"size" gorm:"not null"`
	FilePath   string    `json:"filePath" gorm:"size:1024;not null"`
	UploadedAt time.Time `json:"uploadedAt" gorm:"autoCreateTime"`
}

// TableName overrides the default table name.
func (WillDocument) TableName() string { return "will_documents" }

// BeforeCreate sets UUID before creating the record.
func (d *WillDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
