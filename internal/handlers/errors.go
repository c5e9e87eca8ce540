package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rental-manager/internal/auth"
	"rental-manager/internal/database"
	"rental-manager/internal/increase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// statusFor maps domain and storage errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, increase.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, increase.ErrNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, increase.ErrPolicyDisabled), errors.Is(err, increase.ErrPolicyIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, increase.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": message}; internal errors are logged and not echoed
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// account returns the caller's account id or writes a 401
func account(c *gin.Context) (string, bool) {
	id := auth.AccountID(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": increase.ErrUnauthenticated.Error()})
		return "", false
	}
	return id, true
}

const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, badRequest("%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", key)
	}
	return n, nil
}
