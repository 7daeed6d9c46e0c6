package app

import (
	"context"
	"testing"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Конструирование движка не устанавливает соединений, поэтому сборку
// можно проверить без работающих postgres, redis и kafka.
func TestNewEngine_WiresAllServices(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://localhost:5432/mentorbooking")
	require.NoError(t, err)
	defer pool.Close()

	cfg := &config.Config{
		RedisAddr:         "localhost:6379",
		KafkaBrokers:      []string{"localhost:9092"},
		KafkaEventsTopic:  "booking-events",
		CalendarBaseURL:   "http://localhost:8080",
		CalendarTimeout:   10 * time.Second,
		SlotGranularity:   15 * time.Minute,
		MinSessionGapDays: 7,
		SearchLookahead:   30,
		DayLookahead:      14,
		DayStartHour:      9,
		ReserveMaxRetries: 5,
		ReserveBackoff:    200 * time.Millisecond,
		BusyCacheTTL:      time.Minute,
	}

	engine := NewEngine(cfg, pool, zap.NewNop())

	assert.NotNil(t, engine.Availability)
	assert.NotNil(t, engine.Busy)
	assert.NotNil(t, engine.Eligibility)
	assert.NotNil(t, engine.Search)
	assert.NotNil(t, engine.Reservation)
	assert.NotNil(t, engine.Cancellation)

	assert.NoError(t, engine.Close())
}
