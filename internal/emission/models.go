package emission

import (
	"context"
	"io"
	"time"

	"github.com/i474232898/emission-dashboard/internal/geoservice"
)

// SeriesRecord is one observation of a pollutant concentration.
type SeriesRecord struct {
	Timestamp time.Time // always UTC
	Value     float64   // rounded to 6 decimals
}

// ClassShare is the area fraction of one land-cover class column.
type ClassShare struct {
	Code  string // Class_<n>
	Value float64
}

// LandCoverStats is the single-row percentage breakdown over the area.
type LandCoverStats struct {
	Classes []ClassShare
}

// ExportResult is the outcome of a best-effort raster export.
type ExportResult struct {
	Path     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Service is the remote geospatial API as the ingestion flow uses it.
type Service interface {
	ReduceSeries(ctx context.Context, r geoservice.SeriesRequest) ([]geoservice.ImageReduction, error)
	ZonalPercentages(ctx context.Context, r geoservice.ZonalRequest) ([]geoservice.ClassShare, error)
	ExportImage(ctx context.Context, r geoservice.ExportRequest, w io.Writer) (int64, error)
}
