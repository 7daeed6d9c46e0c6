package app

import (
	"context"
	"time"

	"github.com/Aniket1246/mentorbooking/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	availability *service.AvailabilityService
	weeksAhead   int
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(availability *service.AvailabilityService, weeksAhead int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		availability: availability,
		weeksAhead:   weeksAhead,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	go s.runSlotGenerationTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runSlotGenerationTask периодически материализует слоты из шаблонов доступности
func (s *Scheduler) runSlotGenerationTask(ctx context.Context) {
	// Первый запуск сразу при старте
	s.generateSlots(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot generation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot generation task cancelled")
			return
		}
	}
}

// generateSlots генерирует слоты для всех активных менторов
func (s *Scheduler) generateSlots(ctx context.Context) {
	s.logger.Info("Starting automatic slot generation")

	if err := s.availability.GenerateAll(ctx, s.weeksAhead); err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed successfully")
}
