package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aniket1246/mentorbooking/internal/app"
	"github.com/Aniket1246/mentorbooking/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting mentorbooking scheduler",
		zap.String("environment", cfg.Environment),
		zap.Duration("slot_granularity", cfg.SlotGranularity),
		zap.Int("generation_weeks", cfg.GenerationWeeks),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	engine := app.NewEngine(cfg, pool, logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("Engine shutdown incomplete", zap.Error(err))
		}
	}()

	scheduler := app.NewScheduler(engine.Availability, cfg.GenerationWeeks, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	s := <-sig
	logger.Info("Received signal, shutting down", zap.String("signal", s.String()))
}
