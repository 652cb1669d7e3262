package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/dashboard"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"land_cover.csv": "Class_10,Class_30,Class_40,Class_50\n0.4,0.3,0.2,0.1\n",
		"nrti_O3.csv":    "date,O3_column_number_density\n2023-01-01T05:00:00Z,0.120000\n",
		"nrti_NO2.csv":   "date,NO2_column_number_density\n2023-01-01T05:00:00Z,0.000041\n",
		"map.html":       "<html><body>map</body></html>",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	catalog, err := config.LoadCatalog("")
	if err != nil {
		t.Fatal(err)
	}
	d, err := dashboard.Load(catalog, dashboard.Options{DataDir: dir, AssetsDir: dir, MapFile: "map.html"})
	if err != nil {
		t.Fatalf("load dashboard: %v", err)
	}

	app := fiber.New(fiber.Config{Views: NewViews()})
	RegisterRoutes(app, d)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestDashboardPage(t *testing.T) {
	app := newTestApp(t)

	code, body := get(t, app, "/")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}

	for _, want := range []string{
		"<h1>Dashboard</h1>",
		`src="/assets/map.html"`,
		`src="/charts/land_cover"`,
		`src="/charts/O3_plot"`,
		`src="/charts/NO2_plot"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("page misses %q", want)
		}
	}
	if strings.Index(body, "/charts/land_cover") > strings.Index(body, "/charts/O3_plot") {
		t.Fatal("land cover panel must come before the pollutant panels")
	}
}

func TestChartPanels(t *testing.T) {
	app := newTestApp(t)

	code, body := get(t, app, "/charts/O3_plot")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if !strings.Contains(body, "Mean NRTI O3 in Malang City") {
		t.Fatal("chart document misses its title")
	}

	code, _ = get(t, app, "/charts/CO_plot")
	if code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, code)
	}
}

func TestStaticMap(t *testing.T) {
	app := newTestApp(t)

	code, body := get(t, app, "/assets/map.html")
	if code != http.StatusOK || !strings.Contains(body, "map") {
		t.Fatalf("expected map document, got %d %q", code, body)
	}
}

func TestHealthReportsRenderTime(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	app := newTestApp(t)

	code, body := get(t, app, "/health")
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}

	var health struct {
		Status     string    `json:"status"`
		Charts     int       `json:"charts"`
		RenderedAt time.Time `json:"rendered_at"`
	}
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Charts != 3 {
		t.Fatalf("unexpected health %+v", health)
	}
	if health.RenderedAt.Before(before) {
		t.Fatalf("expected render time after %s, got %s", before, health.RenderedAt)
	}
}
