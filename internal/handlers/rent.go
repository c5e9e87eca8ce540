package handlers

import (
	"fmt"
	"net/http"
	"time"

	"rental-manager/internal/config"
	"rental-manager/internal/database"
	"rental-manager/internal/history"
	"rental-manager/internal/increase"
	"rental-manager/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RentHandler serves schedules, payments and the rent increase lifecycle
type RentHandler struct {
	db        *database.GormDB
	increases *increase.Service
	history   *history.Service
	defaults  config.IncreaseConfig
	logger    *zap.Logger
}

func NewRentHandler(db *database.GormDB, increases *increase.Service, hist *history.Service, defaults config.IncreaseConfig, logger *zap.Logger) *RentHandler {
	return &RentHandler{db: db, increases: increases, history: hist, defaults: defaults, logger: logger}
}

// ListPendingIncreases returns the caller's upcoming increases.
// within_days bounds the window; 0 returns every pending increase.
func (h *RentHandler) ListPendingIncreases(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	within, err := queryInt(c, "within_days", increase.DefaultWindow)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items, err := h.increases.ListPending(c.Request.Context(), userID, within)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":     items,
		"count":       len(items),
		"as_of":       h.increases.Today().Format(dateLayout),
		"urgent_days": h.increases.UrgentDays(),
	})
}

type applyIncreaseRequest struct {
	IncreaseDate string `json:"increase_date" binding:"required"`
	Notes        string `json:"notes"`
}

// ApplyIncrease supersedes a schedule with its increased successor
func (h *RentHandler) ApplyIncrease(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req applyIncreaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	effective, err := parseDate("increase_date", req.IncreaseDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	applied, err := h.increases.ApplyIncrease(c.Request.Context(), userID, c.Param("id"), effective, req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, applied)
}

type increasePolicyRequest struct {
	Enabled          bool                `json:"enabled"`
	Type             string              `json:"type"`
	Percentage       decimal.NullDecimal `json:"percentage"`
	DateType         string              `json:"date_type"`
	NextIncreaseDate *string             `json:"next_increase_date"`
	Notes            string              `json:"notes"`
}

// UpdateIncreasePolicy stores the auto-increase settings of a schedule
func (h *RentHandler) UpdateIncreasePolicy(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req increasePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	next, err := parseOptionalDate("next_increase_date", req.NextIncreaseDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	saved, err := h.increases.UpdatePolicy(c.Request.Context(), userID, c.Param("id"), models.IncreasePolicy{
		Enabled:          req.Enabled,
		Type:             models.IncreaseType(req.Type),
		Percentage:       req.Percentage,
		DateType:         models.IncreaseDateType(req.DateType),
		NextIncreaseDate: next,
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ListIncreaseHistory returns applied increases, newest first
func (h *RentHandler) ListIncreaseHistory(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries, err := h.history.List(c.Request.Context(), userID, c.Query("property_id"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ExportIncreaseHistory downloads the history as an XLSX workbook
func (h *RentHandler) ExportIncreaseHistory(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	data, err := h.history.Export(c.Request.Context(), userID, c.Query("property_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("rent-increase-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

type scheduleRequest struct {
	PropertyID string          `json:"property_id" binding:"required"`
	TenantID   *string         `json:"tenant_id"`
	Amount     decimal.Decimal `json:"amount"`
	DueDay     int             `json:"due_day"`
	StartDate  string          `json:"start_date" binding:"required"`
	EndDate    *string         `json:"end_date"`
	IsActive   *bool           `json:"is_active"`
}

func (h *RentHandler) scheduleFromRequest(r *scheduleRequest) (*models.RentSchedule, error) {
	if !r.Amount.IsPositive() {
		return nil, badRequest("amount must be positive")
	}
	if r.DueDay == 0 {
		r.DueDay = h.defaults.DefaultDueDay
	}
	if r.DueDay < 1 || r.DueDay > 31 {
		return nil, badRequest("due_day must be between 1 and 31")
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", r.EndDate)
	if err != nil {
		return nil, err
	}
	if end != nil && end.Before(start) {
		return nil, badRequest("end_date must not be before start_date")
	}
	if r.TenantID != nil && *r.TenantID == "" {
		r.TenantID = nil
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.RentSchedule{
		PropertyID: r.PropertyID,
		TenantID:   r.TenantID,
		Amount:     r.Amount.Round(2),
		DueDay:     r.DueDay,
		StartDate:  start,
		EndDate:    end,
		IsActive:   active,
	}, nil
}

// ListRentSchedules returns the caller's schedules
func (h *RentHandler) ListRentSchedules(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	schedules, err := h.db.ListRentSchedules(c.Request.Context(), userID, c.Query("property_id"), c.Query("active") == "true")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

// GetRentSchedule returns one schedule
func (h *RentHandler) GetRentSchedule(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	schedule, err := h.db.GetRentSchedule(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// CreateRentSchedule opens a schedule for a lease; the increase policy starts disabled
func (h *RentHandler) CreateRentSchedule(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	schedule, err := h.scheduleFromRequest(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.db.CreateRentSchedule(c.Request.Context(), userID, schedule); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// UpdateRentSchedule edits the lease fields of a schedule
func (h *RentHandler) UpdateRentSchedule(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	schedule, err := h.scheduleFromRequest(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	schedule.ID = c.Param("id")
	if err := h.db.UpdateRentSchedule(c.Request.Context(), userID, schedule); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type paymentRequest struct {
	PropertyID     string              `json:"property_id" binding:"required"`
	TenantID       *string             `json:"tenant_id"`
	ScheduleID     *string             `json:"schedule_id"`
	Amount         decimal.Decimal     `json:"amount"`
	ExpectedAmount decimal.NullDecimal `json:"expected_amount"`
	PaymentDate    string              `json:"payment_date" binding:"required"`
	Status         string              `json:"status"`
	Notes          string              `json:"notes"`
}

var paymentStatuses = map[string]bool{
	models.PaymentStatusReceived: true,
	models.PaymentStatusPending:  true,
	models.PaymentStatusLate:     true,
	models.PaymentStatusPartial:  true,
}

// ListRentPayments returns payments filtered by property_id and year
func (h *RentHandler) ListRentPayments(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	year, err := queryInt(c, "year", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	payments, err := h.db.ListRentPayments(c.Request.Context(), userID, c.Query("property_id"), year)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// CreateRentPayment records a payment
func (h *RentHandler) CreateRentPayment(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, badRequest("%v", err))
		return
	}
	if !req.Amount.IsPositive() {
		respondError(c, h.logger, badRequest("amount must be positive"))
		return
	}
	paid, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if req.Status == "" {
		req.Status = h.defaults.DefaultPaymentStatus
	}
	if !paymentStatuses[req.Status] {
		respondError(c, h.logger, badRequest("unknown payment status %q", req.Status))
		return
	}

	payment := &models.RentPayment{
		PropertyID:     req.PropertyID,
		TenantID:       req.TenantID,
		ScheduleID:     req.ScheduleID,
		Amount:         req.Amount.Round(2),
		ExpectedAmount: req.ExpectedAmount,
		PaymentDate:    paid,
		Status:         req.Status,
		Notes:          req.Notes,
	}
	if err := h.db.CreateRentPayment(c.Request.Context(), userID, payment); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// DeleteRentPayment removes a payment
func (h *RentHandler) DeleteRentPayment(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	if err := h.db.DeleteRentPayment(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
