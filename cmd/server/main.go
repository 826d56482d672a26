package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"campus-aid-buddy/internal/adapters/http/middleware"
	"campus-aid-buddy/internal/adapters/http/routes"
	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/adapters/search"
	"campus-aid-buddy/internal/adapters/storage"
	"campus-aid-buddy/internal/config"
	"campus-aid-buddy/internal/core/services"
	"campus-aid-buddy/internal/metrics"
	"campus-aid-buddy/internal/pkg/logger"
	"campus-aid-buddy/internal/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	_ "campus-aid-buddy/docs" // Swagger docs
)

// @title Campus Aid Buddy API
// @version 1.0
// @description Campus helpdesk: tickets routed by category, role dashboards, notices, lectures, syllabi, campus locations and assistants.

// @contact.name API Support
// @contact.email support@campus-aid-buddy.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	migrateOnly := pflag.Bool("migrate-only", false, "run database migrations and exit")
	seedOnly := pflag.Bool("seed", false, "run migrations and seeders, then exit")
	port := pflag.String("port", "", "listen port (overrides PORT)")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("prod")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.New(cfg.AppMode)
	if !cfg.EnvFileLoaded {
		log.Warn().Msg(".env file not found, using environment variables")
	}

	if err := run(cfg, log, *migrateOnly, *seedOnly); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger, migrateOnly, seedOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		return err
	}
	log.Info().Msg("database migration completed")
	if migrateOnly {
		return nil
	}

	if err := config.NewSeeder(db, log, cfg).Run(ctx); err != nil {
		if seedOnly {
			return err
		}
		log.Warn().Err(err).Msg("failed to seed data")
	}
	if seedOnly {
		return nil
	}

	metrics.Register()

	blobs, err := storage.New(ctx, cfg.Storage, log.With().Str("component", "storage").Logger())
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var searcher services.TicketSearcher
	if cfg.Search.Enabled() {
		client, err := search.Connect(cfg.Search, log)
		if err != nil {
			return err
		}
		index := search.NewTicketIndex(client, cfg.Search.Index, log.With().Str("component", "search").Logger())
		searcher = index

		worker := workers.NewSyncWorker(repositories.NewOutboxRepository(db), repositories.NewTicketRepository(db), index, log)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("sync worker stopped")
			}
		}()
		go func() {
			defer wg.Done()
			worker.RetryDLQ(ctx)
		}()
	} else {
		log.Info().Msg("ELASTIC_URL not set, ticket search disabled")
	}

	deps, err := routes.NewDeps(db, cfg, blobs, searcher, log)
	if err != nil {
		return err
	}

	cronService := services.NewCronService(cfg.Cron, deps.Auth, deps.Notices, deps.Tickets, log)
	if err := cronService.Start(); err != nil {
		return err
	}
	defer cronService.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Campus Aid Buddy API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    cfg.Storage.MaxUploadMB << 20,

		DisableStartupMessage: cfg.IsProd(),
	})
	middleware.Setup(app, cfg)
	routes.Setup(app, deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("server starting")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	deps.Ticket.Feed().Close()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error().Err(err).Msg("error during shutdown")
	}
	wg.Wait()
	log.Info().Msg("server stopped gracefully")
	return nil
}
