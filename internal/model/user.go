package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanType identifies a subscription tier.
type PlanType string

const (
	PlanStarter    PlanType = "starter"
	PlanGold       PlanType = "gold"
	PlanPlatinum   PlanType = "platinum"
	PlanEnterprise PlanType = "enterprise"
)

// PlanInterval is the billing cadence of a plan.
type PlanInterval string

const (
	IntervalMonth    PlanInterval = "month"
	IntervalYear     PlanInterval = "year"
	IntervalLifetime PlanInterval = "lifetime"
)

// User represents an authenticated user in the system.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON

	EmailVerified         bool       `json:"emailVerified" gorm:"not null;default:false"`
	VerificationCode      string     `json:"-" gorm:"size:16"`
	VerificationExpiresAt *time.Time `json:"-"`
	ResetToken            string     `json:"-" gorm:"size:128;index"`
	ResetExpiresAt        *time.Time `json:"-"`

	TwoFactorSecret  string `json:"-" gorm:"size:64"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled" gorm:"not null;default:false"`

	OnboardingCompleted bool `json:"onboardingCompleted" gorm:"not null;default:false"`

	StripeCustomerID     string       `json:"-" gorm:"size:64"`
	StripeSubscriptionID string       `json:"-" gorm:"size:64"`
	PlanType             PlanType     `json:"planType,omitempty" gorm:"size:20"`
	PlanInterval         PlanInterval `json:"planInterval,omitempty" gorm:"size:20"`
	SubscriptionStatus   string       `json:"subscriptionStatus,omitempty" gorm:"size:32"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
