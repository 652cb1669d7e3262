package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/emission-dashboard/internal/aoi"
	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/emission"
	"github.com/i474232898/emission-dashboard/internal/geoservice"
	"github.com/i474232898/emission-dashboard/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ConfigureLogging()

	if err := cfg.ValidateIngest(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	// Boundary problems are fatal before any remote call.
	area, err := aoi.Load(cfg.AOIPath)
	if err != nil {
		log.Fatalf("failed to load area of interest: %v", err)
	}
	log.WithFields(log.Fields{
		"path":        area.Path(),
		"rings":       area.Rings(),
		"coordinates": area.CoordinateCount(),
	}).Info("area of interest loaded")

	// Client for the remote geospatial API; a zero timeout means none.
	httpClient := &http.Client{
		Timeout: cfg.GeoTimeout,
	}
	client := geoservice.NewClient(httpClient, cfg.GeoAPIURL, cfg.GeoAPIToken, cfg.GeoMaxRetries)

	pipeline, err := emission.NewPipeline(client, area, catalog, emission.Options{
		DataDir:   cfg.DataDir,
		ImagesDir: cfg.ImagesDir,
		Start:     cfg.SeriesStart,
		Location:  cfg.SourceLocation,
	})
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Run(ctx); err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	if cfg.IngestCron == "" {
		return
	}

	sched := scheduler.New(ctx, cfg.IngestCron, 0, pipeline)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	<-ctx.Done()
	log.Info("shutting down")
}
