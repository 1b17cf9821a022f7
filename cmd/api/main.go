package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"musicschool-news/interfaces/api/middleware"
	"musicschool-news/interfaces/api/routes"
	"musicschool-news/pkg/config"
	"musicschool-news/pkg/di"
	"musicschool-news/pkg/logger"
)

// multipart bodies carry several media files per request
const bodyLimitFiles = 8

func main() {
	logCfg := config.LoadLogConfig()
	if err := logger.Init(logCfg.Dir, logCfg.Console); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	logger.Startup("logger_init", "Logger initialized", map[string]interface{}{"dir": logCfg.Dir})

	container := di.NewContainer()
	if err := container.Initialize(); err != nil {
		logger.StartupError("container_init_failed", "Failed to initialize container", err, nil)
		os.Exit(1)
	}
	cfg := container.GetConfig()

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		AppName:      cfg.App.Name,
		BodyLimit:    int(cfg.Media.MaxBytes) * bodyLimitFiles,
		ReadTimeout:  2 * time.Minute,
	})

	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CorsMiddleware())

	if container.LocalStorage != nil {
		app.Static(cfg.Storage.LocalURL, container.LocalStorage.Dir())
	}

	routes.SetupRoutes(app, container.GetHandlers(), cfg, container.Hub, container.Registry)

	setupGracefulShutdown(app, container)

	port := cfg.App.Port
	logger.Startup("server_starting", "Server starting", map[string]interface{}{
		"port":        port,
		"environment": cfg.App.Env,
		"health":      fmt.Sprintf("http://localhost:%s/health", port),
		"api":         fmt.Sprintf("http://localhost:%s/api/v1", port),
		"websocket":   fmt.Sprintf("ws://localhost:%s/ws/news", port),
		"metrics":     fmt.Sprintf("http://localhost:%s/metrics", port),
	})

	if err := app.Listen(":" + port); err != nil {
		logger.StartupError("server_failed", "Server failed to start", err, nil)
		os.Exit(1)
	}
}

func setupGracefulShutdown(app *fiber.App, container *di.Container) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Startup("shutdown_started", "Gracefully shutting down", nil)

		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logger.StartupError("http_shutdown_failed", "HTTP server did not stop cleanly", err, nil)
		}

		if err := container.Cleanup(); err != nil {
			logger.StartupError("cleanup_failed", "Error during cleanup", err, nil)
		}

		os.Exit(0)
	}()
}
