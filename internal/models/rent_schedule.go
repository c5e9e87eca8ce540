package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IncreaseType describes what the increase percentage is tied to
type IncreaseType string

const (
	IncreaseTypeIndexTied     IncreaseType = "index_tied"
	IncreaseTypeContractBased IncreaseType = "contract_based"
)

// Valid reports whether t is a known increase type
func (t IncreaseType) Valid() bool {
	return t == IncreaseTypeIndexTied || t == IncreaseTypeContractBased
}

// IncreaseDateType selects how the next increase date is derived
type IncreaseDateType string

const (
	IncreaseDateLeaseAnniversary IncreaseDateType = "lease_anniversary"
	IncreaseDateManual           IncreaseDateType = "manual"
)

// Valid reports whether t is a known date rule
func (t IncreaseDateType) Valid() bool {
	return t == IncreaseDateLeaseAnniversary || t == IncreaseDateManual
}

// IncreasePolicy is the auto-increase configuration embedded in a schedule
type IncreasePolicy struct {
	Enabled          bool                `gorm:"column:increase_enabled;not null;default:false" json:"enabled"`
	Type             IncreaseType        `gorm:"column:increase_type;type:varchar(20)" json:"type,omitempty"`
	Percentage       decimal.NullDecimal `gorm:"column:increase_percentage;type:decimal(6,2)" json:"percentage"`
	DateType         IncreaseDateType    `gorm:"column:increase_date_type;type:varchar(20)" json:"date_type,omitempty"`
	NextIncreaseDate *time.Time          `gorm:"column:next_increase_date;type:date" json:"next_increase_date,omitempty"`
	LastIncreaseDate *time.Time          `gorm:"column:last_increase_date;type:date" json:"last_increase_date,omitempty"`
	Notes            string              `gorm:"column:increase_notes;type:text" json:"notes,omitempty"`
}

// RentSchedule is one rent amount in effect for a lease over a date range.
// A schedule is never mutated by an increase; it is superseded by a successor.
type RentSchedule struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string  `gorm:"type:varchar(64);not null;index:idx_schedule_owner" json:"user_id"`
	PropertyID string  `gorm:"type:varchar(36);not null;index:idx_schedule_lease" json:"property_id"`
	TenantID   *string `gorm:"type:varchar(36);index:idx_schedule_lease" json:"tenant_id,omitempty"`

	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	DueDay    int             `gorm:"not null;default:1" json:"due_day"`
	StartDate time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate   *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	IsActive  bool            `gorm:"not null;index:idx_schedule_owner" json:"is_active"`

	Increase IncreasePolicy `gorm:"embedded" json:"increase"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (RentSchedule) TableName() string {
	return "rent_schedules"
}

// BeforeCreate assigns a UUID when the caller did not
func (s *RentSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsCurrent reports whether the schedule is the lease's current rent
func (s *RentSchedule) IsCurrent() bool {
	return s.IsActive && s.EndDate == nil
}
