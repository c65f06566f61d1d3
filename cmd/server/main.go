package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/prashan-s/cinema-labs/internal/api"
	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/internal/app/maintenance"
	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/database"
	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/internal/tmdb"
	"github.com/prashan-s/cinema-labs/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cinemalabs-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if strings.TrimSpace(cfg.TMDB.BearerToken) == "" {
		return errors.New("tmdb.bearer_token must be configured")
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	client, err := tmdb.NewClient(tmdb.Config{
		BaseURL:     cfg.TMDB.BaseURL,
		BearerToken: cfg.TMDB.BearerToken,
		Timeout:     cfg.TMDB.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initialise tmdb client: %w", err)
	}

	store, err := cache.NewStore(db)
	if err != nil {
		return fmt.Errorf("initialise cache store: %w", err)
	}

	catalogSvc, err := services.NewCatalogService(store, client, cfg.TMDB.Cache)
	if err != nil {
		return fmt.Errorf("initialise catalog service: %w", err)
	}

	syncSvc, err := services.NewSyncService(db, store, client, cfg.TMDB.Cache, cfg.Sync)
	if err != nil {
		return fmt.Errorf("initialise sync service: %w", err)
	}

	scheduler := maintenance.NewScheduler(store, syncSvc,
		maintenance.WithSyncSchedule(cfg.Sync.Schedule),
		maintenance.WithSweepSchedule(cfg.Sync.SweepSchedule),
	)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		<-scheduler.Stop().Done()
	}()

	router, err := api.NewRouter(cfg, api.Deps{
		Catalog: catalogSvc,
		Sync:    syncSvc,
		Store:   store,
		Client:  client,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.Connection()
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if err := database.Close(db); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}
}
