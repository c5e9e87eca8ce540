package increase

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when no caller identity is present
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNotFound is returned when the schedule is missing, not owned by the caller, or no longer current
	ErrNotFound = errors.New("rent schedule not found")
	// ErrPolicyDisabled is returned when the schedule has no enabled increase policy
	ErrPolicyDisabled = errors.New("rent increase policy is not enabled")
	// ErrPolicyIncomplete is returned when a required policy field is missing
	ErrPolicyIncomplete = errors.New("rent increase policy is incomplete")
	// ErrMissingLeaseStart is returned when the anniversary rule has no lease start to count from
	ErrMissingLeaseStart = fmt.Errorf("%w: lease start date is required for lease anniversary increases", ErrPolicyIncomplete)
	// ErrMissingPercentage is returned when an enabled policy has no percentage; it
	// matches both ErrPolicyDisabled and ErrPolicyIncomplete
	ErrMissingPercentage = fmt.Errorf("%w: %w: increase percentage is not set", ErrPolicyDisabled, ErrPolicyIncomplete)
	// ErrInvalidInput is returned for malformed caller input
	ErrInvalidInput = errors.New("invalid input")
)
