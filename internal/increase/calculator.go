package increase

import (
	"fmt"
	"time"

	"rental-manager/internal/models"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how increased amounts are rounded to cents
type RoundingMode string

const (
	// RoundHalfUp rounds halves away from zero: 1050.105 -> 1050.11
	RoundHalfUp RoundingMode = "half_up"
	// RoundHalfEven rounds halves to the even cent: 1050.105 -> 1050.10
	RoundHalfEven RoundingMode = "half_even"
)

var hundred = decimal.NewFromInt(100)

// Date truncates t to its calendar date in t's location, returned as midnight UTC.
// All schedule dates are compared in this form.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(now.In(loc))
}

// AddYears adds n years to a date, clamping Feb 29 to Feb 28 in non-leap years
func AddYears(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	target := time.Date(y+n, m, 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(target); day > last {
		day = last
	}
	return time.Date(y+n, m, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// NextIncreaseDate computes when the next increase falls due.
//
// manual returns the configured date unchanged. lease_anniversary starts from the
// last increase date, or the lease start when there has been none, and returns the
// first yearly anniversary strictly after today.
func NextIncreaseDate(rule models.IncreaseDateType, leaseStart, lastIncrease, manualDate *time.Time, today time.Time) (*time.Time, error) {
	switch rule {
	case models.IncreaseDateManual:
		return manualDate, nil
	case models.IncreaseDateLeaseAnniversary:
		var reference time.Time
		switch {
		case lastIncrease != nil:
			reference = Date(*lastIncrease)
		case leaseStart != nil:
			reference = Date(*leaseStart)
		default:
			return nil, ErrMissingLeaseStart
		}

		today = Date(today)
		k := 1
		next := AddYears(reference, k)
		for !next.After(today) {
			k++
			next = AddYears(reference, k)
		}
		return &next, nil
	default:
		return nil, fmt.Errorf("%w: unknown date rule %q", ErrPolicyIncomplete, rule)
	}
}

// NewAmount returns amount * (1 + percentage/100) rounded to two decimals
func NewAmount(amount, percentage decimal.Decimal, mode RoundingMode) decimal.Decimal {
	raw := amount.Mul(decimal.NewFromInt(1).Add(percentage.Div(hundred)))
	if mode == RoundHalfEven {
		return raw.RoundBank(2)
	}
	return raw.Round(2)
}

// DaysUntil returns the signed number of days from today to date
func DaysUntil(date, today time.Time) int {
	return int(Date(date).Sub(Date(today)).Hours() / 24)
}
