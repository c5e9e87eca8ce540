package handlers

import (
	"context"
	"net/http"

	"rental-manager/internal/ratelimit"
	"rental-manager/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReminderRunner triggers the reminder for one account outside the cron schedule
type ReminderRunner interface {
	RunFor(ctx context.Context, account string) (*scheduler.Summary, error)
}

// AdminHandler handles admin operations
type AdminHandler struct {
	reminders ReminderRunner
	limiter   *ratelimit.RateLimiter
	logger    *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reminders ReminderRunner, limiter *ratelimit.RateLimiter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{reminders: reminders, limiter: limiter, logger: logger}
}

// RunReminders runs the pending increase reminder for the caller's account.
// The all-accounts run belongs to cron and `rentctl remind`.
// POST /api/admin/reminders/run
func (h *AdminHandler) RunReminders(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	if h.reminders == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reminders are not configured"})
		return
	}

	h.logger.Info("Manual reminder run triggered", zap.String("account", userID))
	summary, err := h.reminders.RunFor(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "completed",
		"summary": summary,
	})
}

// GetRateLimitStats returns the caller's rate limit usage
// GET /api/admin/ratelimit/stats
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	userID, ok := account(c)
	if !ok {
		return
	}
	if h.limiter == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{Enabled: false})
		return
	}
	c.JSON(http.StatusOK, h.limiter.GetStats(userID))
}
