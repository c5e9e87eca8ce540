package database

import (
	"context"
	"fmt"

	"rental-manager/internal/models"

	"gorm.io/gorm"
)

// ownedBy scopes a query to one account
func ownedBy(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// ensureOwned fails with ErrNotFound unless the row id exists for the account
func (gdb *GormDB) ensureOwned(ctx context.Context, model interface{}, userID, id string) error {
	var count int64
	if err := gdb.db.WithContext(ctx).Model(model).Scopes(ownedBy(userID)).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProperty inserts a property for the account
func (gdb *GormDB) CreateProperty(ctx context.Context, userID string, p *models.Property) error {
	p.UserID = userID
	if err := gdb.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// ListProperties returns the account's properties ordered by name
func (gdb *GormDB) ListProperties(ctx context.Context, userID string) ([]models.Property, error) {
	var properties []models.Property
	err := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Order("name ASC").Find(&properties).Error
	return properties, err
}

// GetProperty retrieves one property owned by the account
func (gdb *GormDB) GetProperty(ctx context.Context, userID, id string) (*models.Property, error) {
	var property models.Property
	if err := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, notFound(err)
	}
	return &property, nil
}

// UpdateProperty overwrites the editable fields of a property
func (gdb *GormDB) UpdateProperty(ctx context.Context, userID string, p *models.Property) error {
	existing, err := gdb.GetProperty(ctx, userID, p.ID)
	if err != nil {
		return err
	}

	// Keep ownership and creation time
	p.UserID = existing.UserID
	p.CreatedAt = existing.CreatedAt
	return gdb.db.WithContext(ctx).Save(p).Error
}

// DeleteProperty removes a property owned by the account
func (gdb *GormDB) DeleteProperty(ctx context.Context, userID, id string) error {
	res := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Where("id = ?", id).Delete(&models.Property{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTenant inserts a tenant, checking the property belongs to the same account
func (gdb *GormDB) CreateTenant(ctx context.Context, userID string, t *models.Tenant) error {
	if t.PropertyID != nil {
		if err := gdb.ensureOwned(ctx, &models.Property{}, userID, *t.PropertyID); err != nil {
			return fmt.Errorf("property %s: %w", *t.PropertyID, err)
		}
	}
	t.UserID = userID
	if err := gdb.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// ListTenants returns the account's tenants, optionally for one property
func (gdb *GormDB) ListTenants(ctx context.Context, userID, propertyID string) ([]models.Tenant, error) {
	var tenants []models.Tenant
	query := gdb.db.WithContext(ctx).Scopes(ownedBy(userID))
	if propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}
	err := query.Order("last_name ASC, first_name ASC").Find(&tenants).Error
	return tenants, err
}

// GetTenant retrieves one tenant owned by the account
func (gdb *GormDB) GetTenant(ctx context.Context, userID, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, notFound(err)
	}
	return &tenant, nil
}

// UpdateTenant overwrites the editable fields of a tenant
func (gdb *GormDB) UpdateTenant(ctx context.Context, userID string, t *models.Tenant) error {
	existing, err := gdb.GetTenant(ctx, userID, t.ID)
	if err != nil {
		return err
	}
	if t.PropertyID != nil {
		if err := gdb.ensureOwned(ctx, &models.Property{}, userID, *t.PropertyID); err != nil {
			return fmt.Errorf("property %s: %w", *t.PropertyID, err)
		}
	}

	t.UserID = existing.UserID
	t.CreatedAt = existing.CreatedAt
	return gdb.db.WithContext(ctx).Save(t).Error
}

// DeleteTenant removes a tenant owned by the account
func (gdb *GormDB) DeleteTenant(ctx context.Context, userID, id string) error {
	res := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Where("id = ?", id).Delete(&models.Tenant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// sameLease matches schedules of one (property, tenant) pair
func sameLease(propertyID string, tenantID *string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("property_id = ?", propertyID)
		if tenantID == nil {
			return db.Where("tenant_id IS NULL")
		}
		return db.Where("tenant_id = ?", *tenantID)
	}
}

// hasCurrentSchedule reports whether the lease already has an active, un-ended schedule other than exceptID
func (gdb *GormDB) hasCurrentSchedule(ctx context.Context, userID, propertyID string, tenantID *string, exceptID string) (bool, error) {
	var count int64
	query := gdb.db.WithContext(ctx).Model(&models.RentSchedule{}).
		Scopes(ownedBy(userID), sameLease(propertyID, tenantID)).
		Where("is_active = ? AND end_date IS NULL", true)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (gdb *GormDB) checkScheduleRefs(ctx context.Context, userID string, s *models.RentSchedule) error {
	if err := gdb.ensureOwned(ctx, &models.Property{}, userID, s.PropertyID); err != nil {
		return fmt.Errorf("property %s: %w", s.PropertyID, err)
	}
	if s.TenantID != nil {
		if err := gdb.ensureOwned(ctx, &models.Tenant{}, userID, *s.TenantID); err != nil {
			return fmt.Errorf("tenant %s: %w", *s.TenantID, err)
		}
	}
	return nil
}

// CreateRentSchedule opens a new schedule for a lease. A lease may have only one current schedule.
func (gdb *GormDB) CreateRentSchedule(ctx context.Context, userID string, s *models.RentSchedule) error {
	if err := gdb.checkScheduleRefs(ctx, userID, s); err != nil {
		return err
	}
	if s.IsCurrent() {
		exists, err := gdb.hasCurrentSchedule(ctx, userID, s.PropertyID, s.TenantID, "")
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: lease already has an active rent schedule", ErrConflict)
		}
	}

	s.UserID = userID
	if err := gdb.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create rent schedule: %w", err)
	}
	return nil
}

// ListRentSchedules returns the account's schedules, newest first
func (gdb *GormDB) ListRentSchedules(ctx context.Context, userID, propertyID string, activeOnly bool) ([]models.RentSchedule, error) {
	var schedules []models.RentSchedule
	query := gdb.db.WithContext(ctx).Scopes(ownedBy(userID))
	if propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("start_date DESC").Find(&schedules).Error
	return schedules, err
}

// GetRentSchedule retrieves one schedule owned by the account
func (gdb *GormDB) GetRentSchedule(ctx context.Context, userID, id string) (*models.RentSchedule, error) {
	var schedule models.RentSchedule
	if err := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Where("id = ?", id).First(&schedule).Error; err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

// UpdateRentSchedule edits the lease fields of a current schedule. The increase policy is
// left untouched; it changes only through UpdateIncreasePolicy and ApplyIncrease.
// Ended schedules are read-only.
func (gdb *GormDB) UpdateRentSchedule(ctx context.Context, userID string, s *models.RentSchedule) error {
	existing, err := gdb.GetRentSchedule(ctx, userID, s.ID)
	if err != nil {
		return err
	}
	if !existing.IsCurrent() {
		return fmt.Errorf("%w: rent schedule %s has ended and can no longer be edited", ErrConflict, s.ID)
	}
	if err := gdb.checkScheduleRefs(ctx, userID, s); err != nil {
		return err
	}
	if s.IsCurrent() {
		exists, err := gdb.hasCurrentSchedule(ctx, userID, s.PropertyID, s.TenantID, s.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: lease already has an active rent schedule", ErrConflict)
		}
	}

	s.UserID = existing.UserID
	s.CreatedAt = existing.CreatedAt
	s.Increase = existing.Increase
	return gdb.db.WithContext(ctx).Save(s).Error
}

// CreateRentPayment records a payment against one of the account's properties
func (gdb *GormDB) CreateRentPayment(ctx context.Context, userID string, p *models.RentPayment) error {
	if err := gdb.ensureOwned(ctx, &models.Property{}, userID, p.PropertyID); err != nil {
		return fmt.Errorf("property %s: %w", p.PropertyID, err)
	}
	if p.TenantID != nil {
		if err := gdb.ensureOwned(ctx, &models.Tenant{}, userID, *p.TenantID); err != nil {
			return fmt.Errorf("tenant %s: %w", *p.TenantID, err)
		}
	}
	if p.ScheduleID != nil {
		if err := gdb.ensureOwned(ctx, &models.RentSchedule{}, userID, *p.ScheduleID); err != nil {
			return fmt.Errorf("schedule %s: %w", *p.ScheduleID, err)
		}
	}

	p.UserID = userID
	if err := gdb.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create rent payment: %w", err)
	}
	return nil
}

// ListRentPayments returns payments, newest first, optionally filtered by property and year
func (gdb *GormDB) ListRentPayments(ctx context.Context, userID, propertyID string, year int) ([]models.RentPayment, error) {
	var payments []models.RentPayment
	query := gdb.db.WithContext(ctx).Scopes(ownedBy(userID))
	if propertyID != "" {
		query = query.Where("property_id = ?", propertyID)
	}
	if year > 0 {
		query = query.Where("period_year = ?", year)
	}
	err := query.Order("payment_date DESC").Find(&payments).Error
	return payments, err
}

// DeleteRentPayment removes a payment owned by the account
func (gdb *GormDB) DeleteRentPayment(ctx context.Context, userID, id string) error {
	res := gdb.db.WithContext(ctx).Scopes(ownedBy(userID)).Where("id = ?", id).Delete(&models.RentPayment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
