package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Asset is a piece of property listed in a will.
type Asset struct {
	ID             uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	WillID         uuid.UUID       `json:"willId" gorm:"type:char(36);not null;index"`
	Name           string          `json:"name" gorm:"size:255;not null"`
	Type           string          `json:"type" gorm:"size:64"`
	Description    string          `json:"description,omitempty" gorm:"type:text"`
	EstimatedValue decimal.Decimal `json:"estimatedValue" gorm:"type:decimal(15,2);not null;default:0"`
	Location       string          `json:"location,omitempty" gorm:"size:255"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
