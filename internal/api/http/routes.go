package httpapi

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/i474232898/emission-dashboard/internal/dashboard"
	"github.com/i474232898/emission-dashboard/internal/store"
)

//go:embed views/*.html
var viewsFS embed.FS

// NewViews returns the template engine holding the dashboard page.
func NewViews() fiber.Views {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

type panelView struct {
	ID    string
	Title string
	Src   string
}

// RegisterRoutes wires the health check, the dashboard page, chart panels
// and the static map.
func RegisterRoutes(app *fiber.App, d *dashboard.Dashboard) {
	app.Static("/assets", d.AssetsDir)

	app.Get("/health", func(c *fiber.Ctx) error {
		panels := d.Panels.List()
		var rendered time.Time
		for _, p := range panels {
			if p.Rendered.After(rendered) {
				rendered = p.Rendered
			}
		}

		return c.JSON(fiber.Map{
			"status":      "ok",
			"service":     "emission-dashboard",
			"charts":      len(panels),
			"rendered_at": rendered,
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		panels := d.Panels.List()
		views := make([]panelView, 0, len(panels))
		for _, p := range panels {
			views = append(views, panelView{
				ID:    p.Figure.ID,
				Title: p.Figure.Title,
				Src:   "/charts/" + p.Figure.ID,
			})
		}

		return c.Render("dashboard", fiber.Map{
			"Title":  d.Title,
			"MapSrc": "/assets/" + d.MapFile,
			"Panels": views,
		})
	})

	app.Get("/charts/:id", func(c *fiber.Ctx) error {
		p, err := d.Panels.Get(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no chart with that id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load chart")
		}

		c.Type("html", "utf-8")
		return c.Send(p.HTML)
	})
}
