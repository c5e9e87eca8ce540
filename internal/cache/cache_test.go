package cache

import (
	"context"
	"testing"
	"time"

	"rental-manager/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *PendingCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewPendingCache(NewRedisKV(client), time.Hour, zap.NewNop())
}

func samplePending() []models.PendingIncrease {
	tenant := "t1"
	name := "Aino Virtanen"
	return []models.PendingIncrease{{
		ScheduleID:         "s1",
		PropertyID:         "p1",
		PropertyName:       "Alder Court",
		TenantID:           &tenant,
		TenantName:         &name,
		CurrentAmount:      decimal.RequireFromString("800.00"),
		IncreasePercentage: decimal.RequireFromString("3.5"),
		NewAmount:          decimal.RequireFromString("828.00"),
		NextIncreaseDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IncreaseType:       models.IncreaseTypeContractBased,
		DaysUntilIncrease:  334,
	}}
}

func TestPendingCache_RoundTrip(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	today := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	_, ok := c.GetPending(ctx, "user-1", today)
	assert.False(t, ok)

	c.SetPending(ctx, "user-1", today, samplePending())
	assert.True(t, mr.Exists("rent:pending:user-1"))
	assert.Equal(t, time.Hour, mr.TTL("rent:pending:user-1"))

	items, ok := c.GetPending(ctx, "user-1", today)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Alder Court", items[0].PropertyName)
	assert.True(t, items[0].NewAmount.Equal(decimal.RequireFromString("828")))
	assert.Equal(t, 334, items[0].DaysUntilIncrease)
	assert.True(t, items[0].NextIncreaseDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, ok = c.GetPending(ctx, "user-2", today)
	assert.False(t, ok)
}

func TestPendingCache_StaleDayIsMiss(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()
	today := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	c.SetPending(ctx, "user-1", today, samplePending())
	_, ok := c.GetPending(ctx, "user-1", today.AddDate(0, 0, 1))
	assert.False(t, ok)
}

func TestPendingCache_Invalidate(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()
	today := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	c.SetPending(ctx, "user-1", today, samplePending())
	c.InvalidatePending(ctx, "user-1")
	assert.False(t, mr.Exists("rent:pending:user-1"))

	_, ok := c.GetPending(ctx, "user-1", today)
	assert.False(t, ok)
}

func TestPendingCache_CorruptEntryIsMiss(t *testing.T) {
	mr, c := setupTestRedis(t)
	require.NoError(t, mr.Set("rent:pending:user-1", "{not json"))

	_, ok := c.GetPending(context.Background(), "user-1", time.Now())
	assert.False(t, ok)
}

func TestPendingCache_RedisDownIsMiss(t *testing.T) {
	mr, c := setupTestRedis(t)
	mr.Close()

	ctx := context.Background()
	c.SetPending(ctx, "user-1", time.Now(), samplePending())
	_, ok := c.GetPending(ctx, "user-1", time.Now())
	assert.False(t, ok)
}
