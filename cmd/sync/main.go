package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/database"
	"github.com/prashan-s/cinema-labs/internal/models"
	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/internal/tmdb"
	"github.com/prashan-s/cinema-labs/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code, err := run(ctx, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string) (int, error) {
	fs := flag.NewFlagSet("cinemalabs-sync", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var (
		configPath string
		force      bool
		verbose    bool
	)
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")
	fs.BoolVar(&force, "force", false, "Run every sync job regardless of the schedule gate")
	fs.BoolVar(&verbose, "verbose", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return 1, err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return 1, err
	}

	level := cfg.Server.LogLevel
	if verbose {
		level = "debug"
	}
	if err := app.ConfigureLogging(level); err != nil {
		return 1, fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	if !cfg.TMDB.Cache.Enabled {
		fmt.Println("Cache is disabled in configuration; nothing to sync.")
		return 0, nil
	}

	if strings.TrimSpace(cfg.TMDB.BearerToken) == "" {
		return 1, errors.New("tmdb.bearer_token must be configured")
	}

	client, err := tmdb.NewClient(tmdb.Config{
		BaseURL:     cfg.TMDB.BaseURL,
		BearerToken: cfg.TMDB.BearerToken,
		Timeout:     cfg.TMDB.Timeout,
	})
	if err != nil {
		return 1, fmt.Errorf("initialise tmdb client: %w", err)
	}

	if !client.ValidateToken(ctx) {
		return 1, errors.New("TMDB API token was rejected; check tmdb.bearer_token")
	}

	db, err := database.OpenAndMigrate(cfg.Database.Connection())
	if err != nil {
		return 1, fmt.Errorf("open database: %w", err)
	}
	defer closeDatabase(db)

	store, err := cache.NewStore(db)
	if err != nil {
		return 1, fmt.Errorf("initialise cache store: %w", err)
	}

	syncSvc, err := services.NewSyncService(db, store, client, cfg.TMDB.Cache, cfg.Sync)
	if err != nil {
		return 1, fmt.Errorf("initialise sync service: %w", err)
	}

	if force {
		return runForced(ctx, syncSvc, store)
	}

	report := syncSvc.RunFullSync(ctx)
	fmt.Printf("expired_cleaned: %d\n", report.ExpiredCleaned)
	fmt.Printf("%s: %s\n", models.SyncPopularMovies, report.PopularMovies)
	fmt.Printf("%s: %s\n", models.SyncPopularTVShows, report.PopularTVShows)
	fmt.Printf("%s: %s\n", models.SyncTrending, report.Trending)

	if report.PopularMovies == services.JobFailed ||
		report.PopularTVShows == services.JobFailed ||
		report.Trending == services.JobFailed {
		return 1, nil
	}
	return 0, nil
}

// runForced bypasses the schedule gate and runs every job unconditionally.
func runForced(ctx context.Context, syncSvc *services.SyncService, store *cache.Store) (int, error) {
	swept, err := store.SweepExpired(ctx)
	if err != nil {
		logger.Warn("expired cache sweep failed", zap.Error(err))
	} else {
		fmt.Printf("expired_cleaned: %d\n", swept)
	}

	jobs := []struct {
		name string
		run  func(context.Context) error
	}{
		{models.SyncPopularMovies, syncSvc.SyncPopularMovies},
		{models.SyncPopularTVShows, syncSvc.SyncPopularTVShows},
		{models.SyncTrending, syncSvc.SyncTrending},
	}

	code := 0
	for _, job := range jobs {
		if err := job.run(ctx); err != nil {
			fmt.Printf("%s: failed (%v)\n", job.name, err)
			code = 1
			continue
		}
		fmt.Printf("%s: success\n", job.name)
	}
	return code, nil
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

func closeDatabase(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		logger.Warn("database close failed", zap.Error(err))
	}
}
