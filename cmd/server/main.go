package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartkurv/pricing-service/config"
	"github.com/smartkurv/pricing-service/internal/catalog"
	"github.com/smartkurv/pricing-service/internal/handlers"
	"github.com/smartkurv/pricing-service/internal/middleware"
	"github.com/smartkurv/pricing-service/internal/pricing"
	"github.com/smartkurv/pricing-service/internal/stores"
	"github.com/smartkurv/pricing-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)
	log.Logger = *logger

	logger.Info().Msg("Starting pricing service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	directory, cleanup, err := loadDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load store directory")
	}
	defer cleanup()
	logger.Info().Int("stores", directory.Len()).Msg("Store directory loaded")

	cat := catalog.LoadFile(cfg.Catalog.Path)
	if barcodes, err := catalog.LoadBarcodeFile(cfg.Catalog.BarcodePath); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Catalog.BarcodePath).Msg("Barcode map not loaded")
	} else {
		cat = cat.WithBarcodes(barcodes)
	}

	remote := pricing.NewClient(cfg.Remote.ClientConfig())
	finder := pricing.NewFinder(&cfg.Pricing, directory, cat, remote)
	api := handlers.NewAPI(finder, cat)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", api.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/compare", api.Compare)
		v1.GET("/catalog", api.ListCatalog)
		v1.GET("/catalog/search", api.SearchCatalog)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.RateLimitMiddleware())
	{
		internal.GET("/health", api.Health)
		internal.GET("/priors", api.GetPriors)
		internal.GET("/cache", api.GetCacheStats)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

// loadDirectory prefers Postgres when DATABASE_URL is set, then a stores
// file, then the built-in directory.
func loadDirectory(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*stores.Directory, func(), error) {
	noop := func() {}

	if dbURL := config.GetDatabaseURL(); dbURL != "" {
		pool, err := stores.ConnectPool(ctx, dbURL, stores.PoolSettings{
			MaxConns:        cfg.Database.MaxConnections,
			MinConns:        cfg.Database.MinConnections,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		directory, err := stores.LoadPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("failed to load stores from database: %w", err)
		}
		logger.Info().Msg("Store directory loaded from database")
		return directory, pool.Close, nil
	}

	if cfg.Stores.Path != "" {
		directory, err := stores.LoadFile(cfg.Stores.Path)
		if err != nil {
			return nil, noop, err
		}
		return directory, noop, nil
	}

	return stores.Default(), noop, nil
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "pricing-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
