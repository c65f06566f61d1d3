package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the Cinema Labs backend.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	TMDB       TMDBConfig       `mapstructure:"tmdb"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// TMDBConfig holds upstream API connection settings.
type TMDBConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	BearerToken  string        `mapstructure:"bearer_token"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Cache        CacheConfig   `mapstructure:"cache"`
}

// CacheConfig controls the TMDB response cache and its TTL policy. Hours are
// configured per endpoint family: slow-moving content is cached far longer
// than fast-moving content.
type CacheConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	SyncIntervalHours int  `mapstructure:"sync_interval_hours"`
	PopularHours      int  `mapstructure:"popular_hours"`
	SearchHours       int  `mapstructure:"search_hours"`
	DetailsHours      int  `mapstructure:"details_hours"`
	TrendingHours     int  `mapstructure:"trending_hours"`
}

// SyncInterval returns the minimum spacing between successful sync runs.
func (c CacheConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalHours) * time.Hour
}

// PopularTTL returns the cache lifetime for discover/popular listings.
func (c CacheConfig) PopularTTL() time.Duration {
	return time.Duration(c.PopularHours) * time.Hour
}

// SearchTTL returns the cache lifetime for search results.
func (c CacheConfig) SearchTTL() time.Duration {
	return time.Duration(c.SearchHours) * time.Hour
}

// DetailsTTL returns the cache lifetime for title details.
func (c CacheConfig) DetailsTTL() time.Duration {
	return time.Duration(c.DetailsHours) * time.Hour
}

// TrendingTTL returns the cache lifetime for trending listings.
func (c CacheConfig) TrendingTTL() time.Duration {
	return time.Duration(c.TrendingHours) * time.Hour
}

// SyncConfig controls the bulk sync engine and background scheduler.
type SyncConfig struct {
	MaxPages      int           `mapstructure:"max_pages"`
	RequestDelay  time.Duration `mapstructure:"request_delay"`
	Schedule      string        `mapstructure:"schedule"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// MonitoringConfig enables metrics endpoints.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("CINEMALABS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/cinemalabs.sqlite")

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("tmdb.timeout", "10s")

	v.SetDefault("tmdb.cache.enabled", true)
	v.SetDefault("tmdb.cache.sync_interval_hours", 24)
	v.SetDefault("tmdb.cache.popular_hours", 6)
	v.SetDefault("tmdb.cache.search_hours", 2)
	v.SetDefault("tmdb.cache.details_hours", 168) // 7 days
	v.SetDefault("tmdb.cache.trending_hours", 1)

	v.SetDefault("sync.max_pages", 5)
	v.SetDefault("sync.request_delay", "100ms")
	v.SetDefault("sync.schedule", "@hourly")
	v.SetDefault("sync.sweep_schedule", "@hourly")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
