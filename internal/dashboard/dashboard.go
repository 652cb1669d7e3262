package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/emission-dashboard/internal/chart"
	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/store"
	"github.com/i474232898/emission-dashboard/internal/table"
)

const LandCoverID = "land_cover"

// Dashboard is the page content, fixed for the lifetime of the process. New
// data on disk is only picked up by restarting.
type Dashboard struct {
	Title     string
	AssetsDir string
	MapFile   string
	Panels    *store.MemoryStore
}

// Options locate the persisted tables and the pre-rendered map.
type Options struct {
	DataDir   string
	AssetsDir string
	MapFile   string
}

// Load reads the persisted tables and renders every chart. Any missing table
// or inconsistent class mapping aborts startup.
func Load(catalog *config.Catalog, opts Options) (*Dashboard, error) {
	styles := make([]chart.ClassStyle, 0, len(catalog.LandCover.Classes))
	for _, c := range catalog.LandCover.Classes {
		styles = append(styles, chart.ClassStyle{Code: c.Code, Label: c.Label, Color: c.Color})
	}
	mapping, err := chart.NewClassMapping(styles)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Title:     "Dashboard",
		AssetsDir: opts.AssetsDir,
		MapFile:   opts.MapFile,
		Panels:    store.NewMemoryStore(),
	}

	lc := catalog.LandCover
	lcTable, err := table.Read(filepath.Join(opts.DataDir, lc.File))
	if err != nil {
		return nil, err
	}
	bar, err := chart.Bar(LandCoverID, lcTable, mapping, lc.Title, lc.XAxis, lc.YAxis)
	if err != nil {
		return nil, fmt.Errorf("land cover chart: %w", err)
	}
	if err := d.add(bar); err != nil {
		return nil, err
	}

	for _, p := range catalog.Pollutants {
		t, err := table.Read(filepath.Join(opts.DataDir, p.File))
		if err != nil {
			return nil, err
		}
		line, err := chart.Line(p.Name+"_plot", t, p.Band, p.Title, p.YAxis)
		if err != nil {
			return nil, fmt.Errorf("%s chart: %w", p.Name, err)
		}
		if err := d.add(line); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(d.MapPath()); err != nil {
		log.WithField("path", d.MapPath()).Warn("pre-rendered map not found; the map frame will be empty")
	}

	return d, nil
}

// MapPath is where the map document is read from.
func (d *Dashboard) MapPath() string {
	return filepath.Join(d.AssetsDir, d.MapFile)
}

func (d *Dashboard) add(f chart.Figure) error {
	html, err := chart.Render(f)
	if err != nil {
		return err
	}
	d.Panels.Save(store.Panel{Figure: f, HTML: html, Rendered: time.Now().UTC()})
	log.WithFields(log.Fields{"chart": f.ID, "points": len(f.Values)}).Debug("chart rendered")
	return nil
}
