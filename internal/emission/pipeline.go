package emission

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/emission-dashboard/internal/aoi"
	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/table"
)

// Options locate the batch outputs and fix the query window.
type Options struct {
	DataDir   string
	ImagesDir string
	Start     time.Time
	Location  *time.Location
}

// Pipeline is the ingestion batch: raster export, land-cover statistics and one
// series file per pollutant.
type Pipeline struct {
	catalog   *config.Catalog
	opts      Options
	series    *SeriesExtractor
	landCover *LandCoverExtractor
}

// NewPipeline wires the extractors to one service client and area.
func NewPipeline(svc Service, area *aoi.Area, catalog *config.Catalog, opts Options) (*Pipeline, error) {
	region, err := area.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("encode area of interest: %w", err)
	}

	return &Pipeline{
		catalog:   catalog,
		opts:      opts,
		series:    NewSeriesExtractor(svc, region, opts.Start, opts.Location),
		landCover: NewLandCoverExtractor(svc, region, catalog.LandCover),
	}, nil
}

// Run executes one batch. The export runs alongside the rest and its failure is
// only logged; any other failure aborts the batch and cancels the export.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := log.WithField("run_id", uuid.NewString())
	started := time.Now()
	logger.Info("ingestion started")

	exportCtx, cancelExport := context.WithCancel(ctx)
	defer cancelExport()

	exportPath := filepath.Join(p.opts.ImagesDir, p.catalog.LandCover.ExportFile)
	exportDone := p.landCover.ExportAsync(exportCtx, exportPath)

	if err := p.ingest(ctx, logger); err != nil {
		cancelExport()
		<-exportDone
		return err
	}

	res := <-exportDone
	elog := logger.WithFields(log.Fields{"path": res.Path, "elapsed": res.Duration.Round(time.Millisecond)})
	if res.Err != nil {
		elog.WithError(res.Err).Warn("raster export failed; continuing")
	} else {
		elog.WithField("bytes", res.Bytes).Info("raster exported")
	}

	logger.WithField("elapsed", time.Since(started).Round(time.Millisecond)).Info("ingestion done")
	return nil
}

func (p *Pipeline) ingest(ctx context.Context, logger *log.Entry) error {
	stats, err := p.landCover.Extract(ctx)
	if err != nil {
		return err
	}
	statsPath := filepath.Join(p.opts.DataDir, p.catalog.LandCover.File)
	if err := table.Write(statsPath, stats.Table()); err != nil {
		return err
	}
	logger.WithFields(log.Fields{"path": statsPath, "classes": len(stats.Classes)}).Info("land cover statistics written")

	for _, pol := range p.catalog.Pollutants {
		plog := logger.WithField("band", pol.Band)
		plog.Info("fetching pollutant series")

		records, err := p.series.Extract(ctx, pol)
		if err != nil {
			return err
		}

		path := filepath.Join(p.opts.DataDir, pol.File)
		if err := table.Write(path, SeriesTable(pol.Band, records)); err != nil {
			return err
		}
		plog.WithFields(log.Fields{"path": path, "rows": len(records)}).Info("pollutant series written")
	}
	return nil
}
