package emission

import (
	"context"
	"io"
	"sync"

	"github.com/i474232898/emission-dashboard/internal/geoservice"
)

type stubService struct {
	mu        sync.Mutex
	series    map[string][]geoservice.ImageReduction
	seriesErr error
	groups    []geoservice.ClassShare
	zonalErr  error
	raster    []byte
	exportErr error

	seriesReqs []geoservice.SeriesRequest
}

func (s *stubService) ReduceSeries(_ context.Context, r geoservice.SeriesRequest) ([]geoservice.ImageReduction, error) {
	s.mu.Lock()
	s.seriesReqs = append(s.seriesReqs, r)
	s.mu.Unlock()
	if s.seriesErr != nil {
		return nil, s.seriesErr
	}
	return s.series[r.Band], nil
}

func (s *stubService) ZonalPercentages(context.Context, geoservice.ZonalRequest) ([]geoservice.ClassShare, error) {
	if s.zonalErr != nil {
		return nil, s.zonalErr
	}
	return s.groups, nil
}

func (s *stubService) ExportImage(_ context.Context, _ geoservice.ExportRequest, w io.Writer) (int64, error) {
	if s.exportErr != nil {
		return 0, s.exportErr
	}
	n, err := w.Write(s.raster)
	return int64(n), err
}

func ptr(v float64) *float64 { return &v }
