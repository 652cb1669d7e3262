package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/emission-dashboard/internal/faults"
	"github.com/i474232898/emission-dashboard/internal/table"
)

type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// TransparentBackground lets the page colour show through every chart.
const TransparentBackground = "rgba(0,0,0,0)"

// Figure is a chart described independently of the rendering library.
type Figure struct {
	ID         string
	Kind       Kind
	Title      string
	XTitle     string
	YTitle     string
	SeriesName string
	Labels     []string
	Values     []float64
	Colors     []string // one per bar; empty for lines
	Markers    bool
	Background string
}

// ClassStyle ties a land-cover column to its bar label and color.
type ClassStyle struct {
	Code  string
	Label string
	Color string
}

// ClassMapping is the ordered class table; bars appear in this order.
type ClassMapping []ClassStyle

// NewClassMapping validates the class table once at startup.
func NewClassMapping(styles []ClassStyle) (ClassMapping, error) {
	if len(styles) == 0 {
		return nil, &faults.ConfigError{Source: "land cover classes", Err: errors.New("no classes configured")}
	}
	seen := make(map[string]bool, len(styles))
	for i, s := range styles {
		if s.Code == "" || s.Label == "" || s.Color == "" {
			return nil, &faults.ConfigError{Source: "land cover classes", Err: fmt.Errorf("class %d is incomplete: %+v", i, s)}
		}
		if seen[s.Code] {
			return nil, &faults.ConfigError{Source: "land cover classes", Err: fmt.Errorf("class %s listed twice", s.Code)}
		}
		seen[s.Code] = true
	}
	return ClassMapping(styles), nil
}

// Line builds a marker line chart of valueColumn against the table's date column.
func Line(id string, t table.Table, valueColumn, title, yTitle string) (Figure, error) {
	dates, err := t.Column("date")
	if err != nil {
		return Figure{}, err
	}
	values, err := t.Floats(valueColumn)
	if err != nil {
		return Figure{}, err
	}

	return Figure{
		ID:         id,
		Kind:       KindLine,
		Title:      title,
		XTitle:     "Date",
		YTitle:     yTitle,
		SeriesName: valueColumn,
		Labels:     dates,
		Values:     values,
		Markers:    true,
		Background: TransparentBackground,
	}, nil
}

// Bar builds the land-cover bar chart from the single-row statistics table.
// Every mapped class must be a column of the table.
func Bar(id string, t table.Table, m ClassMapping, title, xTitle, yTitle string) (Figure, error) {
	if len(t.Rows) != 1 {
		return Figure{}, fmt.Errorf("land cover table must have exactly one row, has %d", len(t.Rows))
	}

	fig := Figure{
		ID:         id,
		Kind:       KindBar,
		Title:      title,
		XTitle:     xTitle,
		YTitle:     yTitle,
		SeriesName: "land cover",
		Labels:     make([]string, 0, len(m)),
		Values:     make([]float64, 0, len(m)),
		Colors:     make([]string, 0, len(m)),
		Background: TransparentBackground,
	}

	for _, c := range m {
		vals, err := t.Floats(c.Code)
		if err != nil {
			if errors.Is(err, table.ErrNoColumn) {
				return Figure{}, &faults.ConfigError{Source: "land cover classes", Err: err}
			}
			return Figure{}, err
		}
		fig.Labels = append(fig.Labels, c.Label)
		fig.Values = append(fig.Values, Percent(vals[0]))
		fig.Colors = append(fig.Colors, c.Color)
	}

	return fig, nil
}

// Percent turns a stored area fraction into a percentage, keeping the three
// decimals of the fraction. Ties round to even.
func Percent(fraction float64) float64 {
	return math.RoundToEven(fraction*1000) / 10
}
