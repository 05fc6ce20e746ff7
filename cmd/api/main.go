package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clinicops/clinic-flow/backend/internal/adapters/cache"
	"github.com/clinicops/clinic-flow/backend/internal/adapters/database"
	"github.com/clinicops/clinic-flow/backend/internal/adapters/events"
	"github.com/clinicops/clinic-flow/backend/internal/api/handlers"
	"github.com/clinicops/clinic-flow/backend/internal/api/middleware"
	"github.com/clinicops/clinic-flow/backend/internal/api/routes"
	"github.com/clinicops/clinic-flow/backend/internal/application/services"
	"github.com/clinicops/clinic-flow/backend/internal/domain/providers"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/postgres"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/clients/redis"
	"github.com/clinicops/clinic-flow/backend/internal/infrastructure/observability"
	"github.com/clinicops/clinic-flow/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client. The engine works without it: no board
	// streaming and no caching, but every queue operation still works.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache and events")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	}

	// Initialize adapters
	txManager := database.NewTxManager(pgClient, metrics)
	stationAdapter := database.NewStationAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	visitAdapter := database.NewVisitAdapter(pgClient)
	queueAdapter := database.NewQueueAdapter(pgClient)
	auditAdapter := database.NewAuditAdapter(pgClient)

	// Initialize services
	stationService := services.NewStationService(stationAdapter, cacheProvider, cfg.Queue.RegistryCacheSeconds)
	checkInService := services.NewCheckInService(
		appointmentAdapter,
		visitAdapter,
		queueAdapter,
		stationService,
		txManager,
		eventBus,
		cfg.Queue.OnTimeGraceMinutes,
	)
	queueService := services.NewQueueService(
		queueAdapter,
		visitAdapter,
		auditAdapter,
		checkInService,
		txManager,
		eventBus,
	)
	statsService := services.NewStatsService(queueAdapter, stationAdapter, cacheProvider, cfg.Queue.StatsCacheSeconds)

	// Initialize handlers
	checkInHandler := handlers.NewCheckInHandler(checkInService)
	queueHandler := handlers.NewQueueHandler(queueService)
	stationHandler := handlers.NewStationHandler(stationService)
	statsHandler := handlers.NewStatsHandler(statsService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	// Set up router
	router := routes.NewRouter(
		checkInHandler,
		queueHandler,
		stationHandler,
		statsHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
		// WriteTimeout must cover long-lived SSE board connections
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
