package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/emission-dashboard/internal/faults"
)

const (
	defaultSeriesStart    = "2023-01-01"
	defaultSourceTimezone = "Asia/Jakarta"
)

var validate = validator.New()

type AppConfig struct {
	// Remote geospatial API.
	GeoAPIURL     string `validate:"omitempty,url"`
	GeoAPIToken   string
	GeoTimeout    time.Duration `validate:"gte=0"` // 0 = no client-side timeout
	GeoMaxRetries int           `validate:"gte=0"`

	AOIPath     string `validate:"required"`
	DataDir     string `validate:"required"`
	ImagesDir   string `validate:"required"`
	AssetsDir   string `validate:"required"`
	MapFile     string `validate:"required"`
	CatalogPath string

	// SeriesStart is the fixed first day of every pollutant query.
	SeriesStart time.Time
	// SourceLocation is the zone the remote timestamps are localized into
	// before being re-expressed in UTC.
	SourceLocation *time.Location

	// IngestCron, when set, keeps the ingest process alive and re-runs the
	// batch on that schedule.
	IngestCron string

	Port     string `validate:"required,numeric"`
	LogLevel log.Level
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.GeoAPIURL = strings.TrimSpace(os.Getenv("GEO_API_URL"))
	cfg.GeoAPIToken = strings.TrimSpace(os.Getenv("GEO_API_TOKEN"))

	timeout, err := time.ParseDuration(getenvDefault("GEO_HTTP_TIMEOUT", "0s"))
	if err != nil {
		return nil, envError("GEO_HTTP_TIMEOUT", err)
	}
	cfg.GeoTimeout = timeout

	retries, err := getenvInt("GEO_MAX_RETRIES", 0)
	if err != nil {
		return nil, envError("GEO_MAX_RETRIES", err)
	}
	cfg.GeoMaxRetries = retries

	cfg.AOIPath = getenvDefault("AOI_PATH", filepath.Join("data", "kota_malang", "malang.geojson"))
	cfg.DataDir = getenvDefault("DATA_DIR", "data")
	cfg.ImagesDir = getenvDefault("IMAGES_DIR", "images")
	cfg.AssetsDir = getenvDefault("ASSETS_DIR", "assets")
	cfg.MapFile = getenvDefault("MAP_FILE", "map.html")
	cfg.CatalogPath = os.Getenv("CATALOG_PATH")

	start, err := time.Parse(time.DateOnly, getenvDefault("SERIES_START_DATE", defaultSeriesStart))
	if err != nil {
		return nil, envError("SERIES_START_DATE", err)
	}
	cfg.SeriesStart = start

	loc, err := time.LoadLocation(getenvDefault("SOURCE_TIMEZONE", defaultSourceTimezone))
	if err != nil {
		return nil, envError("SOURCE_TIMEZONE", err)
	}
	cfg.SourceLocation = loc

	cfg.IngestCron = strings.TrimSpace(os.Getenv("INGEST_CRON"))
	if cfg.IngestCron != "" {
		if _, err := cron.ParseStandard(cfg.IngestCron); err != nil {
			return nil, envError("INGEST_CRON", err)
		}
	}

	cfg.Port = getenvDefault("PORT", "8080")

	level, err := log.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, envError("LOG_LEVEL", err)
	}
	cfg.LogLevel = level

	if err := validate.Struct(cfg); err != nil {
		return nil, &faults.ConfigError{Source: "env", Err: err}
	}

	return cfg, nil
}

// ValidateIngest checks the settings only the ingestion batch needs.
func (c *AppConfig) ValidateIngest() error {
	if c.GeoAPIURL == "" {
		return &faults.ConfigError{Source: "env", Err: fmt.Errorf("GEO_API_URL is required")}
	}
	return nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c *AppConfig) ListenAddr() string {
	return ":" + c.Port
}

func envError(key string, err error) error {
	return &faults.ConfigError{Source: "env", Err: fmt.Errorf("invalid %s: %w", key, err)}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// ConfigureLogging applies the log level and the text formatter used by both
// binaries.
func (c *AppConfig) ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(c.LogLevel)
}
