package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RentPayment records money received against a lease
type RentPayment struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string  `gorm:"type:varchar(64);not null;index" json:"user_id"`
	PropertyID string  `gorm:"type:varchar(36);not null;index" json:"property_id"`
	TenantID   *string `gorm:"type:varchar(36)" json:"tenant_id,omitempty"`
	ScheduleID *string `gorm:"type:varchar(36)" json:"schedule_id,omitempty"`

	Amount         decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	ExpectedAmount decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"expected_amount"`
	PaymentDate    time.Time           `gorm:"type:date;not null;index" json:"payment_date"`
	PeriodMonth    int                 `json:"period_month"`
	PeriodYear     int                 `gorm:"index" json:"period_year"`
	Status         string              `gorm:"type:varchar(20);not null" json:"status"`
	Notes          string              `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName specifies the table name
func (RentPayment) TableName() string {
	return "rent_payments"
}

// BeforeCreate assigns a UUID and derives the period from the payment date
func (p *RentPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.PeriodMonth = int(p.PaymentDate.Month())
	p.PeriodYear = p.PaymentDate.Year()
	return nil
}

// Payment status values
const (
	PaymentStatusReceived = "received"
	PaymentStatusPending  = "pending"
	PaymentStatusLate     = "late"
	PaymentStatusPartial  = "partial"
)
