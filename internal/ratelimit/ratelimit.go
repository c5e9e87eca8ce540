package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// window is the request log of one caller
type window struct {
	minute []time.Time
	hour   []time.Time
}

// RateLimiter enforces per-minute and per-hour sliding windows for each caller key
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	windows map[string]*window
	now     func() time.Time
	mu      sync.Mutex
}

// NewRateLimiter creates a limiter; a zero limit disables that window
func NewRateLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		windows:           make(map[string]*window),
		now:               time.Now,
	}
}

// Allow records a request for key and reports whether it is within the limits.
// When rejected it also returns how long until the oldest request leaves the full window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if !rl.enabled {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok {
		w = &window{}
		rl.windows[key] = w
	}
	w.minute = filterTimes(w.minute, now.Add(-time.Minute))
	w.hour = filterTimes(w.hour, now.Add(-time.Hour))

	if rl.requestsPerMinute > 0 && len(w.minute) >= rl.requestsPerMinute {
		return false, w.minute[0].Add(time.Minute).Sub(now)
	}
	if rl.requestsPerHour > 0 && len(w.hour) >= rl.requestsPerHour {
		return false, w.hour[0].Add(time.Hour).Sub(now)
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	return true, 0
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

// Stats contains the usage of one caller
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
}

// GetStats returns the current usage of key
func (rl *RateLimiter) GetStats(key string) Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	var minute, hour int
	if w, ok := rl.windows[key]; ok {
		w.minute = filterTimes(w.minute, now.Add(-time.Minute))
		w.hour = filterTimes(w.hour, now.Add(-time.Hour))
		minute, hour = len(w.minute), len(w.hour)
	}

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  minute,
		RequestsLastHour:    hour,
		LimitPerMinute:      rl.requestsPerMinute,
		LimitPerHour:        rl.requestsPerHour,
		RemainingThisMinute: max(0, rl.requestsPerMinute-minute),
		RemainingThisHour:   max(0, rl.requestsPerHour-hour),
	}
}

// Reset clears all tracked requests
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.windows = make(map[string]*window)
}

// Middleware limits requests per key; requests for which keyFunc returns "" fall back to the client IP
func (rl *RateLimiter) Middleware(keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		allowed, retryAfter := rl.Allow(key)
		if !allowed {
			seconds := int(retryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
