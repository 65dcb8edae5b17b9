// One-shot utility that recalculates every active cinema's expected
// screening counts from recent run history. Run it after backfilling
// run records or after onboarding a new cinema.
package main

import (
	"context"
	"time"

	"screenwatch-service/internal/infrastructure/config"
	"screenwatch-service/internal/infrastructure/persistence"
	gormRepo "screenwatch-service/internal/interface/repository"
	"screenwatch-service/internal/usecase"
	"screenwatch-service/pkg/logger"
)

func main() {
	log := logger.NewLogger()
	log.Info("Recalculating cinema baselines")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(ctx)

	gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	cinemaRepository := gormRepo.NewGormCinemaRepository(gormDB)
	baselineRepository := gormRepo.NewGormBaselineRepository(gormDB)
	runRepository := gormRepo.NewMongoScraperRunRepository(db)

	tracker := usecase.NewBaselineTracker(cinemaRepository, runRepository, baselineRepository, 28*24*time.Hour, log)

	cinemas, err := cinemaRepository.FindActive(ctx)
	if err != nil {
		log.Fatal("Failed to list cinemas", "error", err)
	}

	updated := 0
	for _, cinema := range cinemas {
		baseline, err := tracker.Recalculate(ctx, cinema.ID)
		if err != nil {
			log.Error("Failed to recalculate baseline", "cinemaSlug", cinema.Slug, "error", err)
			continue
		}
		log.Info("Baseline updated",
			"cinemaSlug", cinema.Slug,
			"weekdayAvg", baseline.WeekdayAvg,
			"weekendAvg", baseline.WeekendAvg,
			"manualOverride", baseline.ManualOverride)
		updated++
	}

	log.Info("Baseline recalculation finished", "cinemas", len(cinemas), "updated", updated)
}
