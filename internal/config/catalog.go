package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/emission-dashboard/internal/faults"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Pollutant describes one tracked gas: where it comes from and how it is charted.
type Pollutant struct {
	Name       string `yaml:"name" validate:"required"`
	Collection string `yaml:"collection" validate:"required"`
	Band       string `yaml:"band" validate:"required"`
	File       string `yaml:"file" validate:"required"`
	Title      string `yaml:"title" validate:"required"`
	YAxis      string `yaml:"y_axis" validate:"required"`
}

// LandCoverClass maps a class column to its display label and color.
type LandCoverClass struct {
	Code  string `yaml:"code" validate:"required"`
	Label string `yaml:"label" validate:"required"`
	Color string `yaml:"color" validate:"required,hexcolor"`
}

type LandCover struct {
	Collection    string           `yaml:"collection" validate:"required"`
	Band          string           `yaml:"band" validate:"required"`
	File          string           `yaml:"file" validate:"required"`
	ExportFile    string           `yaml:"export_file" validate:"required"`
	ExportScale   float64          `yaml:"export_scale" validate:"gt=0"`
	Denominator   float64          `yaml:"denominator" validate:"gt=0"`
	DecimalPlaces int              `yaml:"decimal_places" validate:"gte=0"`
	Title         string           `yaml:"title" validate:"required"`
	XAxis         string           `yaml:"x_axis" validate:"required"`
	YAxis         string           `yaml:"y_axis" validate:"required"`
	Classes       []LandCoverClass `yaml:"classes" validate:"required,min=1,dive"`
}

// Catalog lists every product the batch fetches and the dashboard shows.
type Catalog struct {
	Pollutants []Pollutant `yaml:"pollutants" validate:"required,min=1,dive"`
	LandCover  LandCover   `yaml:"land_cover"`
}

// LoadCatalog reads the YAML catalog at path, or the embedded default when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	source := "embedded catalog"
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &faults.ConfigError{Source: path, Err: err}
		}
		data = raw
		source = path
	}
	return ParseCatalog(source, data)
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(source string, data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &faults.ConfigError{Source: source, Err: err}
	}
	if err := validate.Struct(&c); err != nil {
		return nil, &faults.ConfigError{Source: source, Err: err}
	}

	seen := make(map[string]bool)
	for _, p := range c.Pollutants {
		if seen[p.File] {
			return nil, &faults.ConfigError{Source: source, Err: fmt.Errorf("duplicate pollutant file %q", p.File)}
		}
		seen[p.File] = true
	}

	return &c, nil
}
