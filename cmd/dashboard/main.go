package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/emission-dashboard/internal/api/http"
	"github.com/i474232898/emission-dashboard/internal/config"
	"github.com/i474232898/emission-dashboard/internal/dashboard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ConfigureLogging()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	// Charts are built once; restart to pick up new data.
	dash, err := dashboard.Load(catalog, dashboard.Options{
		DataDir:   cfg.DataDir,
		AssetsDir: cfg.AssetsDir,
		MapFile:   cfg.MapFile,
	})
	if err != nil {
		log.Fatalf("failed to build dashboard: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "emission-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		Views:                 httpapi.NewViews(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, dash)

	go func() {
		log.WithField("addr", cfg.ListenAddr()).Info("dashboard listening")
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
