package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/challenge-tally/internal/config"
	"github.com/challenge-tally/internal/domain"
	"github.com/challenge-tally/internal/handler"
	"github.com/challenge-tally/internal/importer"
	"github.com/challenge-tally/internal/kafka"
	"github.com/challenge-tally/internal/postgres"
	"github.com/challenge-tally/internal/redis"
	"github.com/challenge-tally/internal/service"
	"github.com/challenge-tally/internal/strava"
	"github.com/challenge-tally/internal/websocket"
	"github.com/challenge-tally/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	userList := flag.String("user-list", "", "Path to a user list CSV to seed the roster on startup")
	activityList := flag.String("activity-list", "", "Path to an activity list CSV to import on startup")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	standingsStore, err := redis.NewStandingsStore(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer standingsStore.Close()
	logger.Info("connected to Redis")

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	postgresRepo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgresRepo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := postgresRepo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize the Strava club feed client when credentials are configured
	var feed service.FeedSource
	if cfg.Strava.ClubID != "" && cfg.Strava.SessionCookie != "" {
		feed = strava.NewClient(cfg.Strava.SessionCookie, cfg.Strava.PageDelay, logger)
		logger.Info("Strava feed client initialized", "club_id", cfg.Strava.ClubID)
	} else {
		logger.Info("no Strava credentials configured, feed tracking disabled")
	}

	// Initialize the scoring service
	scoringService := service.NewScoringService(
		postgresRepo,
		standingsStore,
		wsHub,
		feed,
		cfg.Challenge,
		cfg.Strava.ClubID,
		logger,
	)

	// Seed the roster and activities from CSV files if requested
	if *userList != "" {
		if err := seedRoster(ctx, scoringService, *userList, logger); err != nil {
			logger.Error("failed to seed roster", "path", *userList, "error", err)
			os.Exit(1)
		}
	}
	if *activityList != "" {
		if err := seedActivities(ctx, scoringService, cfg, *activityList, logger); err != nil {
			logger.Error("failed to seed activities", "path", *activityList, "error", err)
			os.Exit(1)
		}
	}

	// Initialize rescore worker
	rescorer := worker.NewRescorer(
		scoringService,
		cfg.Challenge,
		&cfg.Rescore,
		logger,
	)

	// Score once on startup so standings are available immediately
	logger.Info("running initial scoring pass")
	rescorer.RunOnce(ctx)

	// Start rescore worker
	if cfg.Rescore.Enabled {
		if err := rescorer.Start(ctx); err != nil {
			logger.Error("failed to start rescore worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for activity ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, scoringService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(scoringService, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop rescore worker
	if err := rescorer.Stop(); err != nil {
		logger.Error("failed to stop rescore worker", "error", err)
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}

// seedRoster loads teams and users from a user list CSV
func seedRoster(ctx context.Context, scoring *service.ScoringService, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := importer.ParseUserList(f, logger)
	if err != nil {
		return err
	}
	return scoring.LoadRoster(ctx, importer.Teams(rows), importer.Users(rows))
}

// seedActivities imports activities from an activity list CSV
func seedActivities(ctx context.Context, scoring *service.ScoringService, cfg *config.Config, path string, logger *slog.Logger) error {
	window, err := cfg.Challenge.Window(time.Now())
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := importer.ParseActivityList(f, logger)
	if err != nil {
		return err
	}

	activities := make([]domain.Activity, 0, len(rows))
	for _, row := range rows {
		activity, err := row.Activity(window.Location)
		if err != nil {
			logger.Warn("skipping unparseable activity row", "error", err)
			continue
		}
		activities = append(activities, activity)
	}
	return scoring.StoreActivities(ctx, activities)
}
