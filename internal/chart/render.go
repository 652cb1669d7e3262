package chart

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Render produces a standalone HTML document for the figure.
func Render(f Figure) ([]byte, error) {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       f.Title,
			ChartID:         f.ID,
			Width:           "100%",
			Height:          "450px",
			BackgroundColor: f.Background,
		}),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: f.XTitle}),
		charts.WithYAxisOpts(opts.YAxis{Name: f.YTitle}),
	}

	var buf bytes.Buffer
	switch f.Kind {
	case KindLine:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)

		data := make([]opts.LineData, 0, len(f.Values))
		for _, v := range f.Values {
			d := opts.LineData{Value: v}
			if f.Markers {
				d.Symbol = "circle"
			}
			data = append(data, d)
		}
		line.SetXAxis(f.Labels).AddSeries(f.SeriesName, data)

		if err := line.Render(&buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", f.ID, err)
		}

	case KindBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)

		data := make([]opts.BarData, 0, len(f.Values))
		for i, v := range f.Values {
			d := opts.BarData{Name: f.Labels[i], Value: v}
			if i < len(f.Colors) {
				d.ItemStyle = &opts.ItemStyle{Color: f.Colors[i]}
			}
			data = append(data, d)
		}
		bar.SetXAxis(f.Labels).AddSeries(f.SeriesName, data)

		if err := bar.Render(&buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", f.ID, err)
		}

	default:
		return nil, fmt.Errorf("render %s: unknown chart kind %q", f.ID, f.Kind)
	}

	return buf.Bytes(), nil
}
