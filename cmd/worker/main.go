package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/app"
	"github.com/Aniket1246/mentorbooking/internal/config"
	"github.com/Aniket1246/mentorbooking/internal/email"
	"github.com/Aniket1246/mentorbooking/internal/kafka"
	"github.com/Aniket1246/mentorbooking/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting mentorbooking worker",
		zap.String("environment", cfg.Environment),
		zap.String("events_topic", cfg.KafkaEventsTopic),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	mentorRepo := repository.NewMentorRepository(pool)

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaEventsTopic)
	defer consumer.Close()

	sender := email.NewSender(logger)

	go func() {
		err := consumer.Consume(ctx, handleBookingMessage(sender, logger))
		if err != nil && ctx.Err() == nil {
			logger.Error("Consumer stopped", zap.Error(err))
		}
	}()

	sweepTicker := time.NewTicker(cfg.CompletionSweep)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			completeElapsed(ctx, bookingRepo, mentorRepo, producer, cfg.KafkaEventsTopic, logger)
		case s := <-sig:
			logger.Info("Received signal, shutting down", zap.String("signal", s.String()))
			return
		}
	}
}

type bookingNotifier interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// handleBookingMessage обрабатывает одно событие из топика бронирований.
// Доставка уведомлений best-effort: ошибка отправки логируется и не
// останавливает consumer; ошибку возвращают только проблемы транспорта.
func handleBookingMessage(sender bookingNotifier, logger *zap.Logger) func(ctx context.Context, msg kafkaGo.Message) error {
	return func(ctx context.Context, msg kafkaGo.Message) error {
		var event kafka.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn("Failed to decode booking event", zap.Error(err))
			return nil
		}

		if err := sender.Send(ctx, event); err != nil {
			logger.Warn("Failed to send booking notification",
				zap.Error(err),
				zap.Int64("booking_id", event.BookingID),
			)
		}
		return nil
	}
}

// completeElapsed переводит прошедшие подтверждённые бронирования в completed
// и публикует события о завершении
func completeElapsed(
	ctx context.Context,
	bookings *repository.BookingRepository,
	mentors *repository.MentorRepository,
	producer *kafka.Producer,
	topic string,
	logger *zap.Logger,
) {
	completed, err := bookings.CompleteElapsed(ctx, time.Now())
	if err != nil {
		logger.Error("Failed to complete elapsed bookings", zap.Error(err))
		return
	}
	if len(completed) == 0 {
		return
	}

	logger.Info("Completed elapsed bookings", zap.Int("count", len(completed)))

	for _, b := range completed {
		mentorName := ""
		if mentor, err := mentors.GetByID(ctx, b.MentorID); err == nil && mentor != nil {
			mentorName = mentor.DisplayName
		}

		event := kafka.BookingEvent{
			Type:       kafka.EventBookingCompleted,
			Reference:  b.Reference.String(),
			BookingID:  b.ID,
			UserEmail:  b.UserEmail,
			MentorID:   b.MentorID,
			MentorName: mentorName,
			StartTime:  b.StartTime,
			EndTime:    b.EndTime,
			MeetLink:   b.MeetLink,
			Status:     string(b.Status),
			Attendees:  b.Attendees,
		}

		if err := producer.Publish(ctx, topic, b.Reference.String(), event); err != nil {
			logger.Warn("Failed to publish completion event",
				zap.Error(err),
				zap.Int64("booking_id", b.ID),
			)
		}
	}
}
