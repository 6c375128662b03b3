package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/api"
	"github.com/slug-swap-api/internal/config"
	"github.com/slug-swap-api/internal/database"
	"github.com/slug-swap-api/internal/repository"
	"github.com/slug-swap-api/internal/service"
	"github.com/slug-swap-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(config.LogConfig{Level: "info"})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	log.Info().Msg("Starting slug swap API server...")

	// Load the route parameter to entity type mapping
	mapping := loadTypeMapping(cfg.Slug, log)

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if cfg.Database.AutoMigrate {
		if err := db.RunMigrations(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	services, err := service.NewServices(repos, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Start ledger reconciler; it returns at once when disabled
	reconcileCtx, stopReconcile := context.WithCancel(context.Background())
	defer stopReconcile()
	go services.Reconcile.StartProcessor(reconcileCtx)

	// Initialize router
	router := api.NewRouter(services, mapping, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopReconcile()
	services.Reconcile.StopProcessor()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// loadTypeMapping parses the configured mapping and logs every diagnostic. Malformed
// entries are dropped and the server keeps running.
func loadTypeMapping(cfg config.SlugConfig, log zerolog.Logger) *config.TypeMapping {
	mapping, diags := config.LoadTypeMapping(cfg)

	known := make([]string, 0, len(repository.OwnerTables))
	for entityType := range repository.OwnerTables {
		known = append(known, entityType)
	}
	sort.Strings(known)
	diags = append(diags, config.CheckTypeMapping(mapping, known)...)

	for _, d := range diags {
		event := log.Warn()
		if d.Level == config.LevelError {
			event = log.Error()
		}
		event.Str("check", d.ID).Msg(d.String())
	}

	log.Info().Int("bindings", mapping.Len()).Msg("Slug type mapping loaded")
	return mapping
}
