package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/nicks96432/libcgss/api"
	"github.com/nicks96432/libcgss/config"
	"github.com/nicks96432/libcgss/utils/logger"
)

func main() {
	configPath := flag.String("config", "libcgss.yaml", "configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// A missing config file is fine; everything has defaults.
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}

	var logWriter io.Writer = os.Stdout
	if cfg.Backend.MainLogFile != "" {
		logFile, err := os.OpenFile(cfg.Backend.MainLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open main log file: %v\n", err)
			os.Exit(1)
		}
		defer logFile.Close()
		logWriter = io.MultiWriter(os.Stdout, logFile)
	}
	mainLogger := logger.NewLogger("Main", cfg.Backend.LogLevel, logWriter)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Backend.BodyLimitMB * 1024 * 1024,
	})
	if cfg.Backend.AccessLog {
		app.Use(fiberlogger.New())
	}

	api.RegisterRoutes(app, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Backend.Host, cfg.Backend.Port)
	mainLogger.Infof("decode service listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		mainLogger.Errorf("failed to start server: %v", err)
		os.Exit(1)
	}
}
