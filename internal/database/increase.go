package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-manager/internal/models"

	"gorm.io/gorm"
)

// IncreaseWrite is the set of rows one applied increase touches
type IncreaseWrite struct {
	UserID     string
	ScheduleID string
	// EndDate closes the superseded schedule (effective date - 1 day)
	EndDate   time.Time
	Successor *models.RentSchedule
	History   *models.RentIncreaseHistory
}

// IncreaseWriteResult reports the non-fatal outcome of the history insert
type IncreaseWriteResult struct {
	HistoryErr error
}

const candidateColumns = `rs.id AS schedule_id, rs.property_id, p.name AS property_name, rs.tenant_id,
	t.first_name AS tenant_first_name, t.last_name AS tenant_last_name,
	rs.amount, rs.start_date, t.lease_start,
	rs.increase_type, rs.increase_percentage, rs.increase_date_type,
	rs.next_increase_date, rs.last_increase_date`

// GetCurrentSchedule retrieves the account's schedule only while it is active and un-ended
func (gdb *GormDB) GetCurrentSchedule(ctx context.Context, userID, id string) (*models.RentSchedule, error) {
	var schedule models.RentSchedule
	err := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).
		Where("id = ? AND is_active = ? AND end_date IS NULL", id, true).
		First(&schedule).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

// LeaseStart returns the lease start used by the anniversary rule: the tenant's
// lease_start when set, otherwise the schedule's own start date
func (gdb *GormDB) LeaseStart(ctx context.Context, s *models.RentSchedule) (*time.Time, error) {
	if s.TenantID != nil {
		var tenant models.Tenant
		err := gdb.db.WithContext(ctx).Scopes(ownedBy(s.UserID)).Where("id = ?", *s.TenantID).First(&tenant).Error
		switch {
		case err == nil:
			if tenant.LeaseStart != nil {
				return tenant.LeaseStart, nil
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	start := s.StartDate
	return &start, nil
}

// ListIncreaseCandidates returns the account's current schedules with an enabled increase policy
func (gdb *GormDB) ListIncreaseCandidates(ctx context.Context, userID string) ([]models.IncreaseCandidate, error) {
	var rows []models.IncreaseCandidate
	err := gdb.db.WithContext(ctx).Table("rent_schedules AS rs").
		Select(candidateColumns).
		Joins("JOIN properties p ON p.id = rs.property_id AND p.user_id = rs.user_id").
		Joins("LEFT JOIN tenants t ON t.id = rs.tenant_id AND t.user_id = rs.user_id").
		Where("rs.user_id = ? AND rs.is_active = ? AND rs.end_date IS NULL AND rs.increase_enabled = ?", userID, true, true).
		Order("p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list increase candidates: %w", err)
	}
	return rows, nil
}

// ListAccountsWithIncreasePolicies returns the accounts that have at least one enabled policy
func (gdb *GormDB) ListAccountsWithIncreasePolicies(ctx context.Context) ([]string, error) {
	var userIDs []string
	err := gdb.db.WithContext(ctx).Model(&models.RentSchedule{}).
		Where("is_active = ? AND end_date IS NULL AND increase_enabled = ?", true, true).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// UpdateIncreasePolicy stores a policy on a current schedule.
// last_increase_date is owned by ApplyIncrease and is never written here.
func (gdb *GormDB) UpdateIncreasePolicy(ctx context.Context, userID, id string, p models.IncreasePolicy) error {
	res := gdb.db.WithContext(ctx).Model(&models.RentSchedule{}).
		Scopes(ownedBy(userID)).
		Where("id = ? AND is_active = ? AND end_date IS NULL", id, true).
		Updates(map[string]interface{}{
			"increase_enabled":    p.Enabled,
			"increase_type":       p.Type,
			"increase_percentage": p.Percentage,
			"increase_date_type":  p.DateType,
			"next_increase_date":  p.NextIncreaseDate,
			"increase_notes":      p.Notes,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update increase policy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyIncrease supersedes a schedule in one transaction: the old schedule is
// closed only if it is still current, the successor is inserted, and the history
// row is written under a savepoint so that its failure does not undo the change.
func (gdb *GormDB) ApplyIncrease(ctx context.Context, w IncreaseWrite) (*IncreaseWriteResult, error) {
	result := &IncreaseWriteResult{}

	err := gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RentSchedule{}).
			Where("id = ? AND user_id = ? AND is_active = ? AND end_date IS NULL", w.ScheduleID, w.UserID, true).
			Updates(map[string]interface{}{
				"is_active": false,
				"end_date":  w.EndDate,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to deactivate schedule: %w", res.Error)
		}
		// Another apply got here first
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		w.Successor.UserID = w.UserID
		if err := tx.Create(w.Successor).Error; err != nil {
			return fmt.Errorf("failed to create successor schedule: %w", err)
		}

		w.History.UserID = w.UserID
		w.History.NewScheduleID = w.Successor.ID
		if err := tx.Transaction(func(htx *gorm.DB) error {
			return htx.Create(w.History).Error
		}); err != nil {
			result.HistoryErr = fmt.Errorf("failed to write increase history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListIncreaseHistory returns applied increases, newest first
func (gdb *GormDB) ListIncreaseHistory(ctx context.Context, userID, propertyID string, limit int) ([]models.RentIncreaseHistory, error) {
	var entries []models.RentIncreaseHistory
	query := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Order("increase_date DESC, applied_at DESC")
	if propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
