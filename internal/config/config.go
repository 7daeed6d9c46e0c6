package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN       string
	Environment string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers     []string
	KafkaEventsTopic string
	KafkaGroupID     string

	CalendarBaseURL string
	CalendarToken   string
	CalendarTimeout time.Duration

	// Scheduling policy
	SlotGranularity   time.Duration // fixed slot width
	MinSessionGapDays int           // minimum gap between a user's sessions
	SearchLookahead   int           // days scanned by earliest-match search
	DayLookahead      int           // days scanned by day-filtered search
	DayStartHour      int           // working day start
	DayEndHour        int           // working day end
	GenerationWeeks   int           // horizon generated ahead

	// Reservation contention policy
	ReserveMaxRetries int
	ReserveBackoff    time.Duration

	BusyCacheTTL    time.Duration
	CompletionSweep time.Duration // worker interval for completing elapsed bookings
	MigrationsPath  string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:       os.Getenv("DB_DSN"),
		Environment: getEnv("ENV", "development"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		KafkaBrokers:     strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaEventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "booking-events"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "mentorbooking-worker"),

		CalendarBaseURL: os.Getenv("CALENDAR_BASE_URL"),
		CalendarToken:   os.Getenv("CALENDAR_TOKEN"),
		CalendarTimeout: getEnvDuration("CALENDAR_TIMEOUT", 10*time.Second),

		SlotGranularity:   time.Duration(getEnvInt("SLOT_GRANULARITY_MINUTES", 15)) * time.Minute,
		MinSessionGapDays: getEnvInt("MIN_SESSION_GAP_DAYS", 7),
		SearchLookahead:   getEnvInt("SEARCH_LOOKAHEAD_DAYS", 30),
		DayLookahead:      getEnvInt("DAY_LOOKAHEAD_DAYS", 14),
		DayStartHour:      getEnvInt("DAY_START_HOUR", 9),
		DayEndHour:        getEnvInt("DAY_END_HOUR", 17),
		GenerationWeeks:   getEnvInt("GENERATION_WEEKS_AHEAD", 4),

		ReserveMaxRetries: getEnvInt("RESERVE_MAX_RETRIES", 5),
		ReserveBackoff:    getEnvDuration("RESERVE_BACKOFF", 200*time.Millisecond),

		BusyCacheTTL:    getEnvDuration("BUSY_CACHE_TTL", 60*time.Second),
		CompletionSweep: getEnvDuration("COMPLETION_SWEEP_INTERVAL", 5*time.Minute),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.SlotGranularity <= 0 {
		return nil, fmt.Errorf("SLOT_GRANULARITY_MINUTES must be positive")
	}
	if cfg.DayEndHour <= cfg.DayStartHour {
		return nil, fmt.Errorf("DAY_END_HOUR must be after DAY_START_HOUR")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
