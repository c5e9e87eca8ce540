package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RentIncreaseHistory is the append-only audit record of an applied increase
type RentIncreaseHistory struct {
	ID            string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string  `gorm:"type:varchar(64);not null;index" json:"user_id"`
	PropertyID    string  `gorm:"type:varchar(36);not null;index" json:"property_id"`
	TenantID      *string `gorm:"type:varchar(36)" json:"tenant_id,omitempty"`
	OldScheduleID string  `gorm:"type:varchar(36);not null" json:"old_schedule_id"`
	NewScheduleID string  `gorm:"type:varchar(36);not null" json:"new_schedule_id"`

	OldAmount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"old_amount"`
	NewAmount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"new_amount"`
	IncreasePercentage decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"increase_percentage"`
	IncreaseType       IncreaseType    `gorm:"type:varchar(20);not null" json:"increase_type"`
	IncreaseDate       time.Time       `gorm:"type:date;not null" json:"increase_date"`

	AppliedBy string    `gorm:"type:varchar(64);not null" json:"applied_by"`
	AppliedAt time.Time `gorm:"not null;autoCreateTime;index" json:"applied_at"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
}

// TableName specifies the table name
func (RentIncreaseHistory) TableName() string {
	return "rent_increase_history"
}

// BeforeCreate assigns a UUID when the caller did not
func (h *RentIncreaseHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// IncreaseCandidate is one active schedule with an enabled policy, joined with
// the labels and lease start needed to compute a PendingIncrease
type IncreaseCandidate struct {
	ScheduleID         string
	PropertyID         string
	PropertyName       string
	TenantID           *string
	TenantFirstName    *string
	TenantLastName     *string
	Amount             decimal.Decimal
	StartDate          time.Time
	LeaseStart         *time.Time
	IncreaseType       IncreaseType
	IncreasePercentage decimal.NullDecimal
	IncreaseDateType   IncreaseDateType
	NextIncreaseDate   *time.Time
	LastIncreaseDate   *time.Time
}

// TenantName returns the joined tenant name, or nil when the schedule has no tenant
func (c *IncreaseCandidate) TenantName() *string {
	if c.TenantID == nil {
		return nil
	}
	t := Tenant{}
	if c.TenantFirstName != nil {
		t.FirstName = *c.TenantFirstName
	}
	if c.TenantLastName != nil {
		t.LastName = *c.TenantLastName
	}
	name := t.FullName()
	return &name
}

// PendingIncrease is a derived, not persisted, view of an upcoming increase
type PendingIncrease struct {
	ScheduleID         string          `json:"schedule_id"`
	PropertyID         string          `json:"property_id"`
	PropertyName       string          `json:"property_name"`
	TenantID           *string         `json:"tenant_id"`
	TenantName         *string         `json:"tenant_name"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	IncreasePercentage decimal.Decimal `json:"increase_percentage"`
	NewAmount          decimal.Decimal `json:"new_amount"`
	NextIncreaseDate   time.Time       `json:"next_increase_date"`
	IncreaseType       IncreaseType    `json:"increase_type"`
	DaysUntilIncrease  int             `json:"days_until_increase"`
	Urgent             bool            `json:"urgent"`
}
