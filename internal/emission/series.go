package emission

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/geoservice"
	"github.com/i474232898/emission-dashboard/internal/table"
)

// SeriesExtractor builds pollutant time series over the area of interest.
type SeriesExtractor struct {
	svc    Service
	region json.RawMessage
	start  time.Time
	loc    *time.Location
	now    func() time.Time
}

func NewSeriesExtractor(svc Service, region json.RawMessage, start time.Time, loc *time.Location) *SeriesExtractor {
	if loc == nil {
		loc = SourceZone
	}
	return &SeriesExtractor{
		svc:    svc,
		region: region,
		start:  start,
		loc:    loc,
		now:    time.Now,
	}
}

// Extract queries every image of the pollutant's collection from the fixed
// start date until today, drops images whose mean is null and returns the
// rest ordered by timestamp.
func (e *SeriesExtractor) Extract(ctx context.Context, p config.Pollutant) ([]SeriesRecord, error) {
	now := e.now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	images, err := e.svc.ReduceSeries(ctx, geoservice.SeriesRequest{
		Collection: p.Collection,
		Band:       p.Band,
		Start:      e.start,
		End:        end,
		Region:     e.region,
	})
	if err != nil {
		return nil, fmt.Errorf("reduce %s: %w", p.Band, err)
	}

	records := make([]SeriesRecord, 0, len(images))
	for _, img := range images {
		if img.Value == nil {
			continue
		}
		ts, err := ConvertTimestamp(img.TimeStart, e.loc)
		if err != nil {
			return nil, fmt.Errorf("image %s: convert timestamp: %w", img.ID, err)
		}
		records = append(records, SeriesRecord{
			Timestamp: ts,
			Value:     Round6(*img.Value),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return records, nil
}

// SeriesTable lays records out as the persisted pollutant file: a date column
// in RFC 3339 UTC and a value column named after the band.
func SeriesTable(band string, records []SeriesRecord) table.Table {
	t := table.Table{
		Header: []string{"date", band},
		Rows:   make([][]string, 0, len(records)),
	}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Value, 'f', 6, 64),
		})
	}
	return t
}
