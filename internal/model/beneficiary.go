package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Beneficiary receives a share of the estate.
type Beneficiary struct {
	ID              uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	WillID          uuid.UUID        `json:"willId" gorm:"type:char(36);not null;index"`
	Name            string           `json:"name" gorm:"size:255;not null"`
	Relationship    string           `json:"relationship" gorm:"size:100"`
	Email           string           `json:"email,omitempty" gorm:"size:255"`
	Phone           string           `json:"phone,omitempty" gorm:"size:50"`
	SharePercentage *decimal.Decimal `json:"sharePercentage,omitempty" gorm:"type:decimal(5,2)"`
	Location        string           `json:"location,omitempty" gorm:"size:255"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Beneficiary) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ShareTotal sums the share percentages that are set.
func ShareTotal(bs []Beneficiary) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bs {
		if b.SharePercentage != nil {
			total = total.Add(*b.SharePercentage)
		}
	}
	return total
}
