package emission

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/faults"
	"github.com/i474232898/emission-dashboard/internal/geoservice"
	"github.com/i474232898/emission-dashboard/internal/table"
)

// LandCoverExtractor clips the land-cover raster to the area of interest.
type LandCoverExtractor struct {
	svc    Service
	region json.RawMessage
	src    config.LandCover
}

func NewLandCoverExtractor(svc Service, region json.RawMessage, src config.LandCover) *LandCoverExtractor {
	return &LandCoverExtractor{svc: svc, region: region, src: src}
}

// Extract requests the percentage-of-area statistic per class.
func (e *LandCoverExtractor) Extract(ctx context.Context) (LandCoverStats, error) {
	groups, err := e.svc.ZonalPercentages(ctx, geoservice.ZonalRequest{
		Collection:    e.src.Collection,
		Band:          e.src.Band,
		Region:        e.region,
		Denominator:   e.src.Denominator,
		DecimalPlaces: e.src.DecimalPlaces,
	})
	if err != nil {
		return LandCoverStats{}, fmt.Errorf("zonal statistics: %w", err)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Class < groups[j].Class })

	stats := LandCoverStats{Classes: make([]ClassShare, 0, len(groups))}
	for i, g := range groups {
		if i > 0 && groups[i-1].Class == g.Class {
			return LandCoverStats{}, fmt.Errorf("zonal statistics: class %d reported twice", g.Class)
		}
		stats.Classes = append(stats.Classes, ClassShare{
			Code:  ClassCode(g.Class),
			Value: g.Value,
		})
	}
	return stats, nil
}

// ClassCode names the column of a land-cover class value.
func ClassCode(class int) string {
	return "Class_" + strconv.Itoa(class)
}

// Table is the single-row persisted form, one column per class code.
func (s LandCoverStats) Table() table.Table {
	header := make([]string, 0, len(s.Classes))
	row := make([]string, 0, len(s.Classes))
	for _, c := range s.Classes {
		header = append(header, c.Code)
		row = append(row, strconv.FormatFloat(c.Value, 'f', -1, 64))
	}
	return table.Table{Header: header, Rows: [][]string{row}}
}

// ExportAsync starts the raster export in the background. The returned channel
// yields exactly one result and never blocks the sender.
func (e *LandCoverExtractor) ExportAsync(ctx context.Context, path string) <-chan ExportResult {
	out := make(chan ExportResult, 1)
	go func() {
		started := time.Now()
		n, err := e.export(ctx, path)
		out <- ExportResult{
			Path:     path,
			Bytes:    n,
			Duration: time.Since(started),
			Err:      err,
		}
	}()
	return out
}

func (e *LandCoverExtractor) export(ctx context.Context, path string) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, &faults.ExportError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	n, err = e.svc.ExportImage(ctx, geoservice.ExportRequest{
		Collection: e.src.Collection,
		Band:       e.src.Band,
		Region:     e.region,
		Scale:      e.src.ExportScale,
	}, tmp)
	if err != nil {
		return n, &faults.ExportError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return n, &faults.ExportError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, &faults.ExportError{Path: path, Err: err}
	}
	return n, nil
}
