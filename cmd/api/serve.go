package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bloodlink/internal/config"
	"bloodlink/internal/database"
	"bloodlink/internal/geo"
	"bloodlink/internal/handler"
	"bloodlink/internal/middleware"
	"bloodlink/internal/pkg/i18n"
	"bloodlink/internal/repository"
	"bloodlink/internal/service"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the campaign expiry sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on start")
	return cmd
}

func serve(parent context.Context, skipMigrations bool) error {
	cfg, logger := app.cfg, app.logger

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := i18n.LoadDefault(); err != nil {
		return fmt.Errorf("failed to load message catalogue: %w", err)
	}

	db, err := config.NewPostgresDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if !skipMigrations {
		if err := database.RunMigrations(db.DB, logger); err != nil {
			return err
		}
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if rdb == nil {
		logger.Warn("REDIS_URL not set; geo index, dispatch guard and prompt ledger run in process")
	} else {
		defer rdb.Close()
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg, logger)

	warmCtx, cancelWarm := context.WithTimeout(ctx, time.Minute)
	indexed, err := geo.Warm(warmCtx, services.GeoIndex, repos.Actor, logger.Named("geo"))
	cancelWarm()
	if err != nil {
		return fmt.Errorf("failed to warm geo index: %w", err)
	}
	logger.Info("geo index warmed", zap.Int("actors", indexed))

	fiberApp := fiber.New(fiber.Config{
		AppName:               "bloodlink",
		ErrorHandler:          middleware.NewErrorHandler(logger),
		DisableStartupMessage: cfg.Environment == "production",
	})

	fiberApp.Use(recover.New())
	fiberApp.Use(middleware.RequestLogger(logger.Named("http"), "/health"))
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	handler.SetupRoutes(fiberApp, handler.NewHandlers(services), services.Auth)

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		services.Sweeper.Run(ctx)
	}()

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		listenErr <- fiberApp.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		stop()
		<-sweepDone
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	<-sweepDone
	return nil
}
