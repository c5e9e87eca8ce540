package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Property is a rental unit owned by one account
type Property struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID string `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Name   string `gorm:"type:varchar(255);not null" json:"name"`

	Address      string              `gorm:"type:text" json:"address,omitempty"`
	City         string              `gorm:"type:varchar(100)" json:"city,omitempty"`
	PostalCode   string              `gorm:"type:varchar(20)" json:"postal_code,omitempty"`
	PropertyType string              `gorm:"type:varchar(50)" json:"property_type,omitempty"`
	SizeSqm      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"size_sqm"`

	PurchasePrice decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"purchase_price"`
	PurchaseDate  *time.Time          `gorm:"type:date" json:"purchase_date,omitempty"`
	Notes         string              `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// BeforeCreate assigns a UUID when the caller did not
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
