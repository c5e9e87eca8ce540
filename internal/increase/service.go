package increase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"rental-manager/internal/database"
	"rental-manager/internal/metrics"
	"rental-manager/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultWindow asks ListPending to use the configured lookahead
const DefaultWindow = -1

var maxPercentage = decimal.NewFromInt(100)

// CandidateSource lists an account's schedules with an enabled increase policy
type CandidateSource interface {
	ListIncreaseCandidates(ctx context.Context, userID string) ([]models.IncreaseCandidate, error)
}

// Store is the persistence the increase lifecycle needs
type Store interface {
	CandidateSource
	GetCurrentSchedule(ctx context.Context, userID, id string) (*models.RentSchedule, error)
	LeaseStart(ctx context.Context, s *models.RentSchedule) (*time.Time, error)
	UpdateIncreasePolicy(ctx context.Context, userID, id string, p models.IncreasePolicy) error
	ApplyIncrease(ctx context.Context, w database.IncreaseWrite) (*database.IncreaseWriteResult, error)
}

// PendingCache holds the unwindowed pending projection of one account for one day
type PendingCache interface {
	GetPending(ctx context.Context, accountID string, asOf time.Time) ([]models.PendingIncrease, bool)
	SetPending(ctx context.Context, accountID string, asOf time.Time, items []models.PendingIncrease)
	InvalidatePending(ctx context.Context, accountID string)
}

// Options carries the policy defaults of the service
type Options struct {
	Location      *time.Location
	Rounding      RoundingMode
	LookaheadDays int
	UrgentDays    int
	Now           func() time.Time
}

// Service implements the rent increase lifecycle for authenticated accounts
type Service struct {
	store   Store
	source  CandidateSource
	cache   PendingCache
	metrics *metrics.Collector
	logger  *zap.Logger
	opts    Options
}

// AppliedIncrease describes the outcome of a successful apply
type AppliedIncrease struct {
	OldScheduleID      string          `json:"old_schedule_id"`
	NewScheduleID      string          `json:"new_schedule_id"`
	OldAmount          decimal.Decimal `json:"old_amount"`
	NewAmount          decimal.Decimal `json:"new_amount"`
	IncreasePercentage decimal.Decimal `json:"increase_percentage"`
	EffectiveDate      time.Time       `json:"effective_date"`
	NextIncreaseDate   *time.Time      `json:"next_increase_date"`
	HistoryRecorded    bool            `json:"history_recorded"`
}

func NewService(store Store, logger *zap.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Rounding == "" {
		opts.Rounding = RoundHalfUp
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		source: store,
		logger: logger.Named("increase"),
		opts:   opts,
	}
}

// WithCandidateSource routes the pending query through another read path
func (s *Service) WithCandidateSource(src CandidateSource) *Service {
	if src != nil {
		s.source = src
	}
	return s
}

// WithCache enables the pending projection cache
func (s *Service) WithCache(c PendingCache) *Service {
	s.cache = c
	return s
}

// WithMetrics attaches a metrics collector
func (s *Service) WithMetrics(m *metrics.Collector) *Service {
	s.metrics = m
	return s
}

// Today returns the service's current calendar date
func (s *Service) Today() time.Time {
	return Today(s.opts.Now(), s.opts.Location)
}

// UrgentDays returns the urgency threshold in days
func (s *Service) UrgentDays() int {
	return s.opts.UrgentDays
}

// ListPending returns the account's pending increases due within withinDays.
// withinDays 0 disables the bound and DefaultWindow uses the configured lookahead.
// Overdue increases always qualify.
func (s *Service) ListPending(ctx context.Context, accountID string, withinDays int) ([]models.PendingIncrease, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	if withinDays < 0 {
		withinDays = s.opts.LookaheadDays
	}

	today := s.Today()
	all, err := s.pending(ctx, accountID, today)
	if err != nil {
		return nil, err
	}

	result := make([]models.PendingIncrease, 0, len(all))
	for _, p := range all {
		if withinDays > 0 && p.DaysUntilIncrease > withinDays {
			continue
		}
		p.Urgent = p.DaysUntilIncrease <= s.opts.UrgentDays
		result = append(result, p)
	}
	return result, nil
}

// pending returns the full projection, from the cache when it is fresh for today
func (s *Service) pending(ctx context.Context, accountID string, today time.Time) ([]models.PendingIncrease, error) {
	if s.cache != nil {
		items, ok := s.cache.GetPending(ctx, accountID, today)
		s.metrics.RecordCacheLookup(ok)
		if ok {
			return items, nil
		}
	}

	candidates, err := s.source.ListIncreaseCandidates(ctx, accountID)
	if err != nil {
		return nil, err
	}

	items := make([]models.PendingIncrease, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		item, err := s.project(c, today)
		if err != nil {
			s.logger.Warn("Skipping schedule with incomplete increase policy",
				zap.String("account", accountID),
				zap.String("schedule_id", c.ScheduleID),
				zap.String("property", c.PropertyName),
				zap.Error(err))
			continue
		}
		items = append(items, *item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].NextIncreaseDate.Equal(items[j].NextIncreaseDate) {
			return items[i].NextIncreaseDate.Before(items[j].NextIncreaseDate)
		}
		return items[i].PropertyName < items[j].PropertyName
	})

	if s.cache != nil {
		s.cache.SetPending(ctx, accountID, today, items)
	}
	return items, nil
}

// project annotates one candidate with its due date and new amount
func (s *Service) project(c *models.IncreaseCandidate, today time.Time) (*models.PendingIncrease, error) {
	if !c.IncreasePercentage.Valid {
		return nil, ErrMissingPercentage
	}

	leaseStart := c.LeaseStart
	if leaseStart == nil {
		start := c.StartDate
		leaseStart = &start
	}

	next, err := NextIncreaseDate(c.IncreaseDateType, leaseStart, c.LastIncreaseDate, c.NextIncreaseDate, today)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%w: manual rule without a next increase date", ErrPolicyIncomplete)
	}
	due := Date(*next)

	pct := c.IncreasePercentage.Decimal
	return &models.PendingIncrease{
		ScheduleID:         c.ScheduleID,
		PropertyID:         c.PropertyID,
		PropertyName:       c.PropertyName,
		TenantID:           c.TenantID,
		TenantName:         c.TenantName(),
		CurrentAmount:      c.Amount,
		IncreasePercentage: pct,
		NewAmount:          NewAmount(c.Amount, pct, s.opts.Rounding),
		NextIncreaseDate:   due,
		IncreaseType:       c.IncreaseType,
		DaysUntilIncrease:  DaysUntil(due, today),
	}, nil
}

// ApplyIncrease supersedes the schedule with one carrying the increased amount from effectiveDate
func (s *Service) ApplyIncrease(ctx context.Context, accountID, scheduleID string, effectiveDate time.Time, notes string) (*AppliedIncrease, error) {
	applied, err := s.applyIncrease(ctx, accountID, scheduleID, effectiveDate, notes)
	switch {
	case err == nil:
		s.metrics.RecordApply("applied")
	case errors.Is(err, ErrNotFound):
		s.metrics.RecordApply("not_found")
	case errors.Is(err, ErrPolicyDisabled), errors.Is(err, ErrPolicyIncomplete), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnauthenticated):
		s.metrics.RecordApply("rejected")
	default:
		s.metrics.RecordApply("error")
	}
	return applied, err
}

func (s *Service) applyIncrease(ctx context.Context, accountID, scheduleID string, effectiveDate time.Time, notes string) (*AppliedIncrease, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}
	if effectiveDate.IsZero() {
		return nil, fmt.Errorf("%w: increase date is required", ErrInvalidInput)
	}
	effective := Date(effectiveDate)

	current, err := s.store.GetCurrentSchedule(ctx, accountID, scheduleID)
	if err != nil {
		return nil, storeError(err)
	}
	// The superseded schedule ends the day before; it must not end before it starts
	if !effective.After(Date(current.StartDate)) {
		return nil, fmt.Errorf("%w: increase date must be after the schedule start %s",
			ErrInvalidInput, Date(current.StartDate).Format("2006-01-02"))
	}

	policy := current.Increase
	if !policy.Enabled {
		return nil, ErrPolicyDisabled
	}
	if !policy.Percentage.Valid {
		return nil, ErrMissingPercentage
	}
	if !policy.Type.Valid() {
		return nil, fmt.Errorf("%w: increase type is not set", ErrPolicyIncomplete)
	}

	pct := policy.Percentage.Decimal
	newAmount := NewAmount(current.Amount, pct, s.opts.Rounding)

	successorPolicy := policy
	successorPolicy.LastIncreaseDate = &effective
	// A manual date has been consumed by this increase
	successorPolicy.NextIncreaseDate = nil
	if policy.DateType == models.IncreaseDateLeaseAnniversary {
		next, err := NextIncreaseDate(models.IncreaseDateLeaseAnniversary, nil, &effective, nil, s.Today())
		if err != nil {
			return nil, err
		}
		successorPolicy.NextIncreaseDate = next
	}

	successor := &models.RentSchedule{
		PropertyID: current.PropertyID,
		TenantID:   current.TenantID,
		Amount:     newAmount,
		DueDay:     current.DueDay,
		StartDate:  effective,
		IsActive:   true,
		Increase:   successorPolicy,
	}
	history := &models.RentIncreaseHistory{
		PropertyID:         current.PropertyID,
		TenantID:           current.TenantID,
		OldScheduleID:      current.ID,
		OldAmount:          current.Amount,
		NewAmount:          newAmount,
		IncreasePercentage: pct,
		IncreaseType:       policy.Type,
		IncreaseDate:       effective,
		AppliedBy:          accountID,
		Notes:              notes,
	}

	res, err := s.store.ApplyIncrease(ctx, database.IncreaseWrite{
		UserID:     accountID,
		ScheduleID: current.ID,
		EndDate:    effective.AddDate(0, 0, -1),
		Successor:  successor,
		History:    history,
	})
	if err != nil {
		return nil, storeError(err)
	}

	if res.HistoryErr != nil {
		s.metrics.RecordHistoryFailure()
		s.logger.Error("Rent increase applied without history entry",
			zap.String("account", accountID),
			zap.String("old_schedule_id", current.ID),
			zap.String("new_schedule_id", successor.ID),
			zap.Error(res.HistoryErr))
	}
	s.invalidate(ctx, accountID)

	s.logger.Info("Applied rent increase",
		zap.String("account", accountID),
		zap.String("property_id", current.PropertyID),
		zap.String("old_schedule_id", current.ID),
		zap.String("new_schedule_id", successor.ID),
		zap.String("old_amount", current.Amount.StringFixed(2)),
		zap.String("new_amount", newAmount.StringFixed(2)),
		zap.Time("effective_date", effective))

	return &AppliedIncrease{
		OldScheduleID:      current.ID,
		NewScheduleID:      successor.ID,
		OldAmount:          current.Amount,
		NewAmount:          newAmount,
		IncreasePercentage: pct,
		EffectiveDate:      effective,
		NextIncreaseDate:   successorPolicy.NextIncreaseDate,
		HistoryRecorded:    res.HistoryErr == nil,
	}, nil
}

// UpdatePolicy validates and stores the increase policy of a current schedule and
// returns the policy as saved, with its next increase date computed
func (s *Service) UpdatePolicy(ctx context.Context, accountID, scheduleID string, p models.IncreasePolicy) (*models.IncreasePolicy, error) {
	if accountID == "" {
		return nil, ErrUnauthenticated
	}

	current, err := s.store.GetCurrentSchedule(ctx, accountID, scheduleID)
	if err != nil {
		return nil, storeError(err)
	}

	if p.Type != "" && !p.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown increase type %q", ErrInvalidInput, p.Type)
	}
	if p.DateType != "" && !p.DateType.Valid() {
		return nil, fmt.Errorf("%w: unknown date rule %q", ErrInvalidInput, p.DateType)
	}
	if p.Percentage.Valid && (!p.Percentage.Decimal.IsPositive() || p.Percentage.Decimal.GreaterThan(maxPercentage)) {
		return nil, fmt.Errorf("%w: percentage must be greater than 0 and at most 100", ErrInvalidInput)
	}
	if p.NextIncreaseDate != nil {
		d := Date(*p.NextIncreaseDate)
		p.NextIncreaseDate = &d
	}

	if p.Enabled {
		switch {
		case p.Type == "":
			return nil, fmt.Errorf("%w: increase type is required", ErrPolicyIncomplete)
		case !p.Percentage.Valid:
			return nil, fmt.Errorf("%w: increase percentage is required", ErrPolicyIncomplete)
		case p.DateType == "":
			return nil, fmt.Errorf("%w: increase date type is required", ErrPolicyIncomplete)
		}

		switch p.DateType {
		case models.IncreaseDateManual:
			if p.NextIncreaseDate == nil {
				return nil, fmt.Errorf("%w: next increase date is required for manual increases", ErrPolicyIncomplete)
			}
		case models.IncreaseDateLeaseAnniversary:
			leaseStart, err := s.store.LeaseStart(ctx, current)
			if err != nil {
				return nil, err
			}
			next, err := NextIncreaseDate(p.DateType, leaseStart, current.Increase.LastIncreaseDate, nil, s.Today())
			if err != nil {
				return nil, err
			}
			p.NextIncreaseDate = next
		}
	}

	p.LastIncreaseDate = current.Increase.LastIncreaseDate
	if err := s.store.UpdateIncreasePolicy(ctx, accountID, current.ID, p); err != nil {
		return nil, storeError(err)
	}
	s.invalidate(ctx, accountID)

	s.logger.Info("Updated rent increase policy",
		zap.String("account", accountID),
		zap.String("schedule_id", current.ID),
		zap.Bool("enabled", p.Enabled),
		zap.String("date_type", string(p.DateType)))
	return &p, nil
}

func (s *Service) invalidate(ctx context.Context, accountID string) {
	if s.cache != nil {
		s.cache.InvalidatePending(ctx, accountID)
	}
}

// storeError maps storage sentinels onto the service's errors
func storeError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
