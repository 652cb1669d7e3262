package emission

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/geoservice"
)

var (
	testRegion = json.RawMessage(`{"type":"MultiPolygon","coordinates":[]}`)
	testStart  = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	o3         = config.Pollutant{
		Name:       "O3",
		Collection: "COPERNICUS/S5P/NRTI/L3_O3",
		Band:       "O3_column_number_density",
		File:       "nrti_O3.csv",
	}
)

func TestExtractDropsNullsAndOrders(t *testing.T) {
	svc := &stubService{series: map[string][]geoservice.ImageReduction{
		o3.Band: {
			{ID: "c", TimeStart: 1672704000000, Value: ptr(0.1300004)},
			{ID: "b", TimeStart: 1672617600000, Value: nil},
			{ID: "a", TimeStart: 1672531200000, Value: ptr(0.12345678)},
		},
	}}

	e := NewSeriesExtractor(svc, testRegion, testStart, SourceZone)
	e.now = func() time.Time { return time.Date(2023, 1, 5, 14, 30, 0, 0, time.UTC) }

	records, err := e.Extract(context.Background(), o3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []SeriesRecord{
		{Timestamp: time.Date(2022, 12, 31, 17, 0, 0, 0, time.UTC), Value: 0.123457},
		{Timestamp: time.Date(2023, 1, 2, 17, 0, 0, 0, time.UTC), Value: 0.13},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if !records[i].Timestamp.Equal(want[i].Timestamp) || records[i].Value != want[i].Value {
			t.Fatalf("record %d: expected %+v, got %+v", i, want[i], records[i])
		}
	}

	req := svc.seriesReqs[0]
	if !req.Start.Equal(testStart) || req.End.Format(time.DateOnly) != "2023-01-05" {
		t.Fatalf("unexpected query window %s..%s", req.Start, req.End)
	}
	if req.Collection != o3.Collection || req.Band != o3.Band {
		t.Fatalf("unexpected product %s/%s", req.Collection, req.Band)
	}

	tbl := SeriesTable(o3.Band, records)
	wantRows := [][]string{
		{"2022-12-31T17:00:00Z", "0.123457"},
		{"2023-01-02T17:00:00Z", "0.130000"},
	}
	if !reflect.DeepEqual(tbl.Header, []string{"date", o3.Band}) || !reflect.DeepEqual(tbl.Rows, wantRows) {
		t.Fatalf("unexpected table %+v", tbl)
	}
}

func TestExtractLengthExcludesNulls(t *testing.T) {
	series := [][]*float64{
		{},
		{nil},
		{ptr(1), nil, ptr(2), nil, nil},
		{ptr(0), ptr(0.5), ptr(0.25)},
	}

	for i, values := range series {
		images := make([]geoservice.ImageReduction, 0, len(values))
		nulls := 0
		for j, v := range values {
			if v == nil {
				nulls++
			}
			images = append(images, geoservice.ImageReduction{TimeStart: int64(j) * 86_400_000, Value: v})
		}

		svc := &stubService{series: map[string][]geoservice.ImageReduction{o3.Band: images}}
		records, err := NewSeriesExtractor(svc, testRegion, testStart, nil).Extract(context.Background(), o3)
		if err != nil {
			t.Fatalf("series %d: %v", i, err)
		}
		if len(records) != len(values)-nulls {
			t.Fatalf("series %d: expected %d records, got %d", i, len(values)-nulls, len(records))
		}
		for _, r := range records {
			if r.Value == 0 && r.Timestamp.IsZero() {
				t.Fatalf("series %d: zero record leaked", i)
			}
		}
	}
}

func TestExtractPropagatesServiceError(t *testing.T) {
	boom := errors.New("quota")
	svc := &stubService{seriesErr: boom}

	_, err := NewSeriesExtractor(svc, testRegion, testStart, nil).Extract(context.Background(), o3)
	if !errors.Is(err, boom) {
		t.Fatalf("expected service error, got %v", err)
	}
}
