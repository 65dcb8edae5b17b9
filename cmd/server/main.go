package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"screenwatch-service/internal/infrastructure/config"
	"screenwatch-service/internal/infrastructure/oauth"
	"screenwatch-service/internal/infrastructure/persistence"
	"screenwatch-service/internal/interface/ai"
	"screenwatch-service/internal/interface/httpapi"
	gormRepo "screenwatch-service/internal/interface/repository"
	"screenwatch-service/internal/interface/scraper"
	"screenwatch-service/internal/usecase"
	"screenwatch-service/pkg/logger"
	"screenwatch-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting Screenwatch Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	loc, err := time.LoadLocation(cfg.VenueTimezone)
	if err != nil {
		log.Fatal("Invalid venue timezone", "timezone", cfg.VenueTimezone, "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection for the run audit store
	log.Info("Connecting to MongoDB")
	mongoClient, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	// Set up PostgreSQL connection for the canonical store
	log.Info("Connecting to PostgreSQL")
	gormDB, err := persistence.NewPostgresDB(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	if err := gormDB.AutoMigrate(
		&gormRepo.Cinemas{},
		&gormRepo.Films{},
		&gormRepo.Screenings{},
		&gormRepo.CinemaBaselines{},
	); err != nil {
		log.Fatal("Failed to migrate schema", "error", err)
	}

	// Set up repositories
	cinemaRepository := gormRepo.NewGormCinemaRepository(gormDB)
	filmRepository := gormRepo.NewGormFilmRepository(gormDB)
	screeningRepository := gormRepo.NewGormScreeningRepository(gormDB)
	baselineRepository := gormRepo.NewGormBaselineRepository(gormDB)
	runRepository := gormRepo.NewMongoScraperRunRepository(db)

	appMetrics := metrics.NewMetrics("screenwatch")

	validator := usecase.NewValidator(usecase.ValidatorConfig{
		EarliestScreeningHour: cfg.EarliestScreeningHour,
		LatestStartHour:       cfg.LatestStartHour,
		FutureHorizonDays:     cfg.FutureHorizonDays,
	}, log)

	detectorCfg := usecase.DetectorConfig{
		TopTierDropPct:      cfg.TopTierDropPct,
		StandardTierDropPct: cfg.StandardTierDropPct,
		HighCountCeilingPct: cfg.HighCountCeilingPct,
		HealthCheckBudget:   cfg.HealthCheckBudget,
	}

	pipeline := usecase.NewIngestionPipeline(
		filmRepository,
		screeningRepository,
		runRepository,
		baselineRepository,
		validator,
		detectorCfg,
		appMetrics,
		log,
	)

	detector := usecase.NewAnomalyDetector(cinemaRepository, runRepository, baselineRepository, detectorCfg, log)
	tracker := usecase.NewBaselineTracker(cinemaRepository, runRepository, baselineRepository, 28*24*time.Hour, log)

	// Set up the AI verifier with model escalation
	cheapClassifier := ai.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.CheapModel, log)
	strongClassifier := ai.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.StrongModel, log)
	verifier := ai.NewEscalatingVerifier(cheapClassifier, strongClassifier, cfg.MinConfidence, appMetrics, log)

	// Set up HTTP clients. Vendor API sources authenticate with client
	// credentials; the rest scrape public pages.
	publicClient := &http.Client{Timeout: cfg.FetchTimeout}
	vendorClient := publicClient
	if cfg.VendorClientID != "" {
		vendorOAuth := oauth.NewVendorOAuth(cfg.VendorTokenURL, cfg.VendorClientID, cfg.VendorClientSecret, log)
		vendorClient = vendorOAuth.Client(ctx)
		vendorClient.Timeout = cfg.FetchTimeout
	}

	// Register scrapers
	registry := scraper.NewRegistry(log)
	for _, def := range scraper.DefaultSources() {
		client := publicClient
		if def.Strategy == scraper.StrategyVendorAPI {
			client = vendorClient
		}
		registry.Register(scraper.Build(def, "", cfg.FutureHorizonDays, client, loc, log))
	}

	runner := usecase.NewScrapeRunner(registry, cinemaRepository, pipeline, appMetrics, log)
	for _, def := range scraper.DefaultChains() {
		runner.AddChain(scraper.BuildChain(def, cfg.FutureHorizonDays, vendorClient, loc, log))
	}

	// Start the scrape loop in a goroutine
	go func() {
		scrapeTicker := time.NewTicker(cfg.ScrapeInterval)
		defer scrapeTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Scrape loop stopped")
				return
			case <-scrapeTicker.C:
				log.Info("Starting scheduled scrape cycle")
				runner.RunAll(ctx, "scheduler")
			}
		}
	}()

	// Set up HTTP server for the operator API and metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	apiHandler := httpapi.NewHandler(detector, verifier, tracker, runner, cinemaRepository, runRepository, log)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop all goroutines

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Screenwatch Service stopped")
}
