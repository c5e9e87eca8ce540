package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rental-manager/internal/config"
	"rental-manager/internal/metrics"
	"rental-manager/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AccountLister finds the accounts that have something to remind about
type AccountLister interface {
	ListAccountsWithIncreasePolicies(ctx context.Context) ([]string, error)
}

// PendingLister computes an account's pending increases within a window of days
type PendingLister interface {
	ListPending(ctx context.Context, accountID string, withinDays int) ([]models.PendingIncrease, error)
}

// Summary reports one reminder run
type Summary struct {
	Accounts int            `json:"accounts"`
	Urgent   int            `json:"urgent"`
	Failed   int            `json:"failed"`
	ByAcct   map[string]int `json:"by_account"`
}

// Scheduler runs the daily rent increase reminder
type Scheduler struct {
	cron       *cron.Cron
	accounts   AccountLister
	pending    PendingLister
	metrics    *metrics.Collector
	config     config.SchedulerConfig
	urgentDays int
	logger     *zap.Logger

	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler firing in loc
func NewScheduler(accounts AccountLister, pending PendingLister, cfg config.SchedulerConfig, urgentDays int, loc *time.Location, m *metrics.Collector, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		accounts:   accounts,
		pending:    pending,
		metrics:    m,
		config:     cfg,
		urgentDays: urgentDays,
		logger:     logger.Named("scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.DailyRunEnabled {
		s.logger.Info("Daily reminder run is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		s.logger.Info("Starting daily rent increase reminder")
		summary, err := s.RunNow(context.Background())
		if err != nil {
			s.logger.Error("Daily reminder failed", zap.Error(err))
			return
		}
		s.logger.Info("Daily reminder completed",
			zap.Int("accounts", summary.Accounts),
			zap.Int("urgent", summary.Urgent),
			zap.Int("failed", summary.Failed))
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()
	s.logger.Info("Scheduler started", zap.String("daily_run_time", s.config.DailyRunTime), zap.String("cron", cronSpec))

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.logger.Info("Scheduler stopped")
	}
}

// RunNow lists the urgent pending increases of every account with an enabled policy.
// A failing account is logged and counted; the run continues with the rest.
func (s *Scheduler) RunNow(ctx context.Context) (*Summary, error) {
	accounts, err := s.accounts.ListAccountsWithIncreasePolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	summary := &Summary{Accounts: len(accounts), ByAcct: make(map[string]int, len(accounts))}
	for _, account := range accounts {
		n, err := s.remind(ctx, account)
		if err != nil {
			summary.Failed++
			s.logger.Error("Failed to compute pending increases", zap.String("account", account), zap.Error(err))
			continue
		}
		summary.ByAcct[account] = n
		summary.Urgent += n
	}

	return summary, nil
}

// RunFor runs the reminder for a single account. The summary only ever names that account.
func (s *Scheduler) RunFor(ctx context.Context, account string) (*Summary, error) {
	n, err := s.remind(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pending increases: %w", err)
	}
	return &Summary{Accounts: 1, Urgent: n, ByAcct: map[string]int{account: n}}, nil
}

// remind logs one account's urgent pending increases and returns how many there are
func (s *Scheduler) remind(ctx context.Context, account string) (int, error) {
	items, err := s.pending.ListPending(ctx, account, s.urgentDays)
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		s.logger.Info("Rent increase due",
			zap.String("account", account),
			zap.String("property", item.PropertyName),
			zap.String("schedule_id", item.ScheduleID),
			zap.Int("days_until", item.DaysUntilIncrease),
			zap.String("current_amount", item.CurrentAmount.StringFixed(2)),
			zap.String("new_amount", item.NewAmount.StringFixed(2)))
	}
	s.metrics.SetPending(account, len(items))
	return len(items), nil
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "07:00" -> "0 7 * * *"
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	s.logger.Warn("Failed to parse daily run time, using default 07:00", zap.String("value", timeStr))
	return "0 7 * * *"
}
