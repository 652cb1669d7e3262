package aoi

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/i474232898/emission-dashboard/internal/faults"
)

var errNoPolygons = errors.New("boundary has no polygon features")

// Area is the immutable area of interest used as the spatial filter of every
// remote query. It is loaded once at process start.
type Area struct {
	path     string
	geometry orb.MultiPolygon
}

// Load reads a GeoJSON FeatureCollection and merges its polygon features into a
// single multipolygon. A missing or malformed file is a ConfigError.
func Load(path string) (*Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &faults.ConfigError{Source: path, Err: err}
	}

	area, err := Parse(data)
	if err != nil {
		return nil, &faults.ConfigError{Source: path, Err: err}
	}
	area.path = path
	return area, nil
}

// Parse decodes boundary GeoJSON already held in memory.
func Parse(data []byte) (*Area, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("boundary has no features")
	}

	var mp orb.MultiPolygon
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, fmt.Errorf("feature %d has no geometry", i)
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
	}
	if len(mp) == 0 {
		return nil, errNoPolygons
	}
	for i, p := range mp {
		if len(p) == 0 || len(p[0]) < 4 {
			return nil, fmt.Errorf("polygon %d has a degenerate outer ring", i)
		}
	}

	return &Area{geometry: mp}, nil
}

// GeoJSON encodes the boundary geometry for use in a remote request body.
func (a *Area) GeoJSON() ([]byte, error) {
	return geojson.NewGeometry(a.geometry).MarshalJSON()
}

// Bound is the bounding box of the area.
func (a *Area) Bound() orb.Bound {
	return a.geometry.Bound()
}

// CoordinateCount is the total number of positions across every ring.
func (a *Area) CoordinateCount() int {
	n := 0
	for _, p := range a.geometry {
		for _, r := range p {
			n += len(r)
		}
	}
	return n
}

// Rings is the number of linear rings, holes included.
func (a *Area) Rings() int {
	n := 0
	for _, p := range a.geometry {
		n += len(p)
	}
	return n
}

func (a *Area) Path() string {
	return a.path
}
