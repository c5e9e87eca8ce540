package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rental-manager/internal/config"
	"rental-manager/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	owner    = "user-1"
	stranger = "user-2"
)

func newTestGormDB(t *testing.T) *GormDB {
	t.Helper()
	cfg := config.DatabaseConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())},
	}
	gdb, err := NewGormDB(cfg, "error")
	require.NoError(t, err)

	sqlDB, err := gdb.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.InitSchema())
	t.Cleanup(func() { gdb.Close() })
	return gdb
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

type fixture struct {
	property *models.Property
	tenant   *models.Tenant
	schedule *models.RentSchedule
}

func seedLease(t *testing.T, gdb *GormDB, userID, propertyName string) fixture {
	t.Helper()
	ctx := context.Background()

	p := &models.Property{Name: propertyName}
	require.NoError(t, gdb.CreateProperty(ctx, userID, p))

	tn := &models.Tenant{PropertyID: &p.ID, FirstName: "Aino", LastName: "Virtanen", LeaseStart: datePtr("2023-03-01"), IsActive: true}
	require.NoError(t, gdb.CreateTenant(ctx, userID, tn))

	s := &models.RentSchedule{
		PropertyID: p.ID,
		TenantID:   &tn.ID,
		Amount:     decimal.RequireFromString("800.00"),
		DueDay:     1,
		StartDate:  date("2023-03-01"),
		IsActive:   true,
		Increase: models.IncreasePolicy{
			Enabled:    true,
			Type:       models.IncreaseTypeContractBased,
			Percentage: decimal.NewNullDecimal(decimal.RequireFromString("3.5")),
			DateType:   models.IncreaseDateLeaseAnniversary,
		},
	}
	require.NoError(t, gdb.CreateRentSchedule(ctx, userID, s))
	return fixture{property: p, tenant: tn, schedule: s}
}

func TestPropertyCRUD_ScopedToAccount(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()

	p := &models.Property{Name: "Alder Court", City: "Tampere"}
	require.NoError(t, gdb.CreateProperty(ctx, owner, p))
	assert.NotEmpty(t, p.ID)

	got, err := gdb.GetProperty(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alder Court", got.Name)

	_, err = gdb.GetProperty(ctx, stranger, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := gdb.ListProperties(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)

	got.City = "Turku"
	require.NoError(t, gdb.UpdateProperty(ctx, owner, got))
	got, err = gdb.GetProperty(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Turku", got.City)
	assert.Equal(t, owner, got.UserID)

	assert.ErrorIs(t, gdb.DeleteProperty(ctx, stranger, p.ID), ErrNotFound)
	require.NoError(t, gdb.DeleteProperty(ctx, owner, p.ID))
	assert.ErrorIs(t, gdb.DeleteProperty(ctx, owner, p.ID), ErrNotFound)
}

func TestCreateTenant_RejectsForeignProperty(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()

	p := &models.Property{Name: "Alder Court"}
	require.NoError(t, gdb.CreateProperty(ctx, owner, p))

	err := gdb.CreateTenant(ctx, stranger, &models.Tenant{PropertyID: &p.ID, FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, gdb.CreateTenant(ctx, owner, &models.Tenant{PropertyID: &p.ID, FirstName: "A", LastName: "B"}))
	tenants, err := gdb.ListTenants(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
}

func TestCreateRentSchedule_OneCurrentPerLease(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	dup := &models.RentSchedule{
		PropertyID: f.property.ID,
		TenantID:   &f.tenant.ID,
		Amount:     decimal.NewFromInt(900),
		StartDate:  date("2024-01-01"),
		IsActive:   true,
	}
	err := gdb.CreateRentSchedule(ctx, owner, dup)
	assert.ErrorIs(t, err, ErrConflict)

	// A closed schedule for the same lease is history and may be recorded
	closed := &models.RentSchedule{
		PropertyID: f.property.ID,
		TenantID:   &f.tenant.ID,
		Amount:     decimal.NewFromInt(700),
		StartDate:  date("2022-03-01"),
		EndDate:    datePtr("2023-02-28"),
		IsActive:   false,
	}
	require.NoError(t, gdb.CreateRentSchedule(ctx, owner, closed))

	schedules, err := gdb.ListRentSchedules(ctx, owner, f.property.ID, true)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, f.schedule.ID, schedules[0].ID)
}

func TestUpdateRentSchedule_KeepsPolicy(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	edit := *f.schedule
	edit.DueDay = 5
	edit.Increase = models.IncreasePolicy{}
	require.NoError(t, gdb.UpdateRentSchedule(ctx, owner, &edit))

	got, err := gdb.GetRentSchedule(ctx, owner, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.DueDay)
	assert.True(t, got.Increase.Enabled)
	assert.Equal(t, "3.5", got.Increase.Percentage.Decimal.String())
}

func TestRentPayments(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	pay := &models.RentPayment{
		PropertyID:  f.property.ID,
		TenantID:    &f.tenant.ID,
		ScheduleID:  &f.schedule.ID,
		Amount:      decimal.RequireFromString("800.00"),
		PaymentDate: date("2025-02-03"),
		Status:      models.PaymentStatusReceived,
	}
	require.NoError(t, gdb.CreateRentPayment(ctx, owner, pay))
	assert.Equal(t, 2, pay.PeriodMonth)
	assert.Equal(t, 2025, pay.PeriodYear)

	err := gdb.CreateRentPayment(ctx, stranger, &models.RentPayment{PropertyID: f.property.ID, Amount: decimal.NewFromInt(1), PaymentDate: date("2025-02-03")})
	assert.ErrorIs(t, err, ErrNotFound)

	payments, err := gdb.ListRentPayments(ctx, owner, "", 2025)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	payments, err = gdb.ListRentPayments(ctx, owner, "", 2024)
	require.NoError(t, err)
	assert.Empty(t, payments)

	require.NoError(t, gdb.DeleteRentPayment(ctx, owner, pay.ID))
}

func TestLeaseStart_FallsBackToScheduleStart(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	start, err := gdb.LeaseStart(ctx, f.schedule)
	require.NoError(t, err)
	assert.True(t, date("2023-03-01").Equal(*start))

	noTenant := &models.RentSchedule{UserID: owner, PropertyID: f.property.ID, StartDate: date("2021-05-10")}
	start, err = gdb.LeaseStart(ctx, noTenant)
	require.NoError(t, err)
	assert.True(t, date("2021-05-10").Equal(*start))
}

func TestListIncreaseCandidates(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Birch House")
	seedLease(t, gdb, owner, "Alder Court")
	seedLease(t, gdb, stranger, "Cedar Row")

	// Disabled policies are not candidates
	disabled := &models.RentSchedule{PropertyID: f.property.ID, Amount: decimal.NewFromInt(500), StartDate: date("2024-01-01"), IsActive: true}
	require.NoError(t, gdb.CreateRentSchedule(ctx, owner, disabled))

	candidates, err := gdb.ListIncreaseCandidates(ctx, owner)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Alder Court", candidates[0].PropertyName)
	assert.Equal(t, "Birch House", candidates[1].PropertyName)
	assert.Equal(t, "Aino Virtanen", *candidates[1].TenantName())
	assert.True(t, date("2023-03-01").Equal(*candidates[1].LeaseStart))
	assert.Equal(t, "3.5", candidates[1].IncreasePercentage.Decimal.String())

	accounts, err := gdb.ListAccountsWithIncreasePolicies(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{owner, stranger}, accounts)
}

func TestUpdateIncreasePolicy_NeverTouchesLastIncrease(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	require.NoError(t, gdb.DB().Model(&models.RentSchedule{}).Where("id = ?", f.schedule.ID).
		Update("last_increase_date", date("2024-03-01")).Error)

	policy := models.IncreasePolicy{
		Enabled:          true,
		Type:             models.IncreaseTypeIndexTied,
		Percentage:       decimal.NewNullDecimal(decimal.NewFromInt(2)),
		DateType:         models.IncreaseDateManual,
		NextIncreaseDate: datePtr("2025-09-01"),
		LastIncreaseDate: datePtr("1999-01-01"),
	}
	require.NoError(t, gdb.UpdateIncreasePolicy(ctx, owner, f.schedule.ID, policy))

	got, err := gdb.GetRentSchedule(ctx, owner, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncreaseDateManual, got.Increase.DateType)
	assert.True(t, date("2025-09-01").Equal(*got.Increase.NextIncreaseDate))
	assert.True(t, date("2024-03-01").Equal(*got.Increase.LastIncreaseDate))

	assert.ErrorIs(t, gdb.UpdateIncreasePolicy(ctx, stranger, f.schedule.ID, policy), ErrNotFound)
}

func increaseWrite(f fixture, amount string) IncreaseWrite {
	successor := *f.schedule
	successor.ID = ""
	successor.Amount = decimal.RequireFromString(amount)
	successor.StartDate = date("2025-03-01")
	successor.Increase.LastIncreaseDate = datePtr("2025-03-01")
	successor.Increase.NextIncreaseDate = datePtr("2026-03-01")

	return IncreaseWrite{
		UserID:     owner,
		ScheduleID: f.schedule.ID,
		EndDate:    date("2025-02-28"),
		Successor:  &successor,
		History: &models.RentIncreaseHistory{
			PropertyID:         f.property.ID,
			TenantID:           f.schedule.TenantID,
			OldScheduleID:      f.schedule.ID,
			OldAmount:          f.schedule.Amount,
			NewAmount:          decimal.RequireFromString(amount),
			IncreasePercentage: decimal.RequireFromString("3.5"),
			IncreaseType:       models.IncreaseTypeContractBased,
			IncreaseDate:       date("2025-03-01"),
			AppliedBy:          owner,
		},
	}
}

func TestApplyIncrease_SupersedesSchedule(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	w := increaseWrite(f, "828.00")
	res, err := gdb.ApplyIncrease(ctx, w)
	require.NoError(t, err)
	assert.NoError(t, res.HistoryErr)

	old, err := gdb.GetRentSchedule(ctx, owner, f.schedule.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.True(t, date("2025-02-28").Equal(*old.EndDate))

	current, err := gdb.GetCurrentSchedule(ctx, owner, w.Successor.ID)
	require.NoError(t, err)
	assert.Equal(t, "828", current.Amount.String())

	history, err := gdb.ListIncreaseHistory(ctx, owner, "", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, f.schedule.ID, history[0].OldScheduleID)
	assert.Equal(t, w.Successor.ID, history[0].NewScheduleID)

	// The original is no longer current
	_, err = gdb.ApplyIncrease(ctx, increaseWrite(f, "828.00"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRentSchedule_SupersededIsReadOnly(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	_, err := gdb.ApplyIncrease(ctx, increaseWrite(f, "828.00"))
	require.NoError(t, err)

	edit := *f.schedule
	edit.Amount = decimal.RequireFromString("1.00")
	edit.IsActive = false
	edit.EndDate = datePtr("2025-02-28")
	assert.ErrorIs(t, gdb.UpdateRentSchedule(ctx, owner, &edit), ErrConflict)

	old, err := gdb.GetRentSchedule(ctx, owner, f.schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, "800.00", old.Amount.StringFixed(2))
}

func TestApplyIncrease_SuccessorFailureRollsBack(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	require.NoError(t, gdb.DB().Callback().Create().Before("gorm:create").Register("test:fail_schedule", func(db *gorm.DB) {
		if db.Statement.Schema != nil && db.Statement.Schema.Table == "rent_schedules" {
			db.AddError(errors.New("disk full"))
		}
	}))

	_, err := gdb.ApplyIncrease(ctx, increaseWrite(f, "828.00"))
	require.Error(t, err)

	current, err := gdb.GetCurrentSchedule(ctx, owner, f.schedule.ID)
	require.NoError(t, err)
	assert.True(t, current.IsActive)
	assert.Nil(t, current.EndDate)
}

func TestApplyIncrease_HistoryFailureKeepsRentChange(t *testing.T) {
	gdb := newTestGormDB(t)
	ctx := context.Background()
	f := seedLease(t, gdb, owner, "Alder Court")

	require.NoError(t, gdb.DB().Callback().Create().Before("gorm:create").Register("test:fail_history", func(db *gorm.DB) {
		if db.Statement.Schema != nil && db.Statement.Schema.Table == "rent_increase_history" {
			db.AddError(errors.New("history table locked"))
		}
	}))

	w := increaseWrite(f, "828.00")
	res, err := gdb.ApplyIncrease(ctx, w)
	require.NoError(t, err)
	assert.Error(t, res.HistoryErr)

	_, err = gdb.GetCurrentSchedule(ctx, owner, w.Successor.ID)
	require.NoError(t, err)
	_, err = gdb.GetCurrentSchedule(ctx, owner, f.schedule.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := gdb.ListIncreaseHistory(ctx, owner, "", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
