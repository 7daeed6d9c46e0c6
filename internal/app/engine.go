package app

import (
	"fmt"

	"github.com/Aniket1246/mentorbooking/internal/cache"
	"github.com/Aniket1246/mentorbooking/internal/calendar"
	"github.com/Aniket1246/mentorbooking/internal/config"
	"github.com/Aniket1246/mentorbooking/internal/kafka"
	"github.com/Aniket1246/mentorbooking/internal/repository"
	"github.com/Aniket1246/mentorbooking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Engine собирает все сервисы движка бронирования поверх общих
// коллабораторов: пула БД, redis-кэша занятости, календаря и kafka.
// Транспортный слой получает готовые сервисы отсюда.
type Engine struct {
	Availability *service.AvailabilityService
	Busy         *service.BusyService
	Eligibility  *service.EligibilityService
	Search       *service.SearchService
	Reservation  *service.ReservationService
	Cancellation *service.CancellationService

	busyCache *cache.BusyCache
	producer  *kafka.Producer
}

// NewEngine создаёт движок. Клиенты redis и kafka ленивые: соединения
// устанавливаются при первом обращении, а не здесь.
func NewEngine(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) *Engine {
	mentors := repository.NewMentorRepository(pool)
	availabilities := repository.NewAvailabilityRepository(pool)
	blocked := repository.NewBlockedDateRepository(pool)
	slots := repository.NewSlotRepository(pool)
	bookings := repository.NewBookingRepository(pool)

	busyCache := cache.NewBusyCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.BusyCacheTTL, logger)
	cal := calendar.NewClient(cfg.CalendarBaseURL, cfg.CalendarToken, cfg.CalendarTimeout, logger)
	producer := kafka.NewProducer(cfg.KafkaBrokers)

	availability := service.NewAvailabilityService(
		mentors, availabilities, blocked, slots, cfg.SlotGranularity, logger)
	busy := service.NewBusyService(cal, busyCache, logger)
	eligibility := service.NewEligibilityService(bookings, cfg.MinSessionGapDays, logger)
	search := service.NewSearchService(
		slots, mentors, eligibility, busy,
		cfg.SlotGranularity, cfg.SearchLookahead, cfg.DayLookahead, cfg.DayStartHour, logger)
	reservation := service.NewReservationService(
		bookings, mentors, eligibility, search, producer, cal,
		cfg.KafkaEventsTopic, cfg.SlotGranularity, cfg.ReserveMaxRetries, cfg.ReserveBackoff, logger)
	cancellation := service.NewCancellationService(
		bookings, mentors, producer, cal,
		cfg.KafkaEventsTopic, cfg.SlotGranularity, cfg.ReserveMaxRetries, cfg.ReserveBackoff, logger)

	return &Engine{
		Availability: availability,
		Busy:         busy,
		Eligibility:  eligibility,
		Search:       search,
		Reservation:  reservation,
		Cancellation: cancellation,
		busyCache:    busyCache,
		producer:     producer,
	}
}

// Close освобождает ресурсы коллабораторов. Пул БД закрывает владелец.
func (e *Engine) Close() error {
	if err := e.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	if err := e.busyCache.Close(); err != nil {
		return fmt.Errorf("close busy cache: %w", err)
	}
	return nil
}
