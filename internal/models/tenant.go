package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tenant is a lessee, optionally attached to a property
type Tenant struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string  `gorm:"type:varchar(64);not null;index" json:"user_id"`
	PropertyID *string `gorm:"type:varchar(36);index" json:"property_id,omitempty"`

	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone     string `gorm:"type:varchar(50)" json:"phone,omitempty"`

	// LeaseStart anchors the lease_anniversary increase rule
	LeaseStart    *time.Time          `gorm:"type:date" json:"lease_start,omitempty"`
	LeaseEnd      *time.Time          `gorm:"type:date" json:"lease_end,omitempty"`
	MonthlyRent   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"monthly_rent"`
	DepositAmount decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"deposit_amount"`
	Notes         string              `gorm:"type:text" json:"notes,omitempty"`
	IsActive      bool                `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate assigns a UUID when the caller did not
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// FullName joins first and last name
func (t *Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}
