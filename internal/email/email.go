package email

import (
	"context"

	"github.com/Aniket1246/mentorbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender доставляет уведомления о бронированиях участникам сессии.
// Пока только логирует; реальный SMTP транспорт подключается здесь.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.logger.Info("Sending booking notification",
		zap.String("type", event.Type),
		zap.String("reference", event.Reference),
		zap.String("user_email", event.UserEmail),
		zap.String("mentor_name", event.MentorName),
		zap.Time("start_time", event.StartTime),
		zap.String("meet_link", event.MeetLink),
		zap.Strings("attendees", event.Attendees),
	)
	return nil
}
