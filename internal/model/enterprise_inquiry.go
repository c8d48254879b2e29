package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnterpriseInquiry is a contact request for the enterprise plan.
type EnterpriseInquiry struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    *uuid.UUID `json:"userId,omitempty" gorm:"type:char(36);index"`
	Name      string     `json:"name" gorm:"size:255;not null"`
	Email     string     `json:"email" gorm:"size:255;not null"`
	Company   string     `json:"company,omitempty" gorm:"size:255"`
	Phone     string     `json:"phone,omitempty" gorm:"size:50"`
	Message   string     `json:"message" gorm:"type:text"`
	CreatedAt time.Time  `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (e *EnterpriseInquiry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
