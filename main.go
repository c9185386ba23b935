package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"forecastmail/config"
	"forecastmail/internal/logger"
	"forecastmail/internal/pipeline"
	"forecastmail/internal/scheduler"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", getDefaultConfigPath(), "Path to TOML configuration file")
	logLevel := flag.String("log-level", "", "Logging level override (debug, info, warn, error)")
	generateConfig := flag.Bool("generate-config", false, "Generate a sample configuration file and exit")
	once := flag.Bool("once", false, "Send a single report immediately and exit")
	flag.Parse()

	// Handle config generation
	if *generateConfig {
		if err := config.GenerateSampleConfig(*configPath); err != nil {
			logger.Fatal("Failed to generate sample config: %v", err)
		}
		logger.Info("Sample configuration file created at: %s", *configPath)
		logger.Info("Please edit the file to add your API keys and mail settings")
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		var configNotFound *config.ConfigNotFoundError
		if errors.As(err, &configNotFound) {
			logger.Fatal("%v", err)
		} else {
			logger.Fatal("Failed to load configuration: %v", err)
		}
	}

	// Validate configuration before any network call
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration validation failed: %v", err)
	}

	// Configure logging from the validated config; the flag takes precedence
	level := cfg.Logging.Level
	if *logLevel != "" {
		if _, err := logger.ParseLevel(*logLevel); err != nil {
			logger.Warn("Invalid log level: %s, using %s", *logLevel, level)
		} else {
			level = *logLevel
		}
	}
	if err := logger.Initialize(logger.Config{
		Enabled:         cfg.Logging.Enabled,
		Directory:       cfg.Logging.Directory,
		FilenamePattern: cfg.Logging.FilenamePattern,
		Level:           level,
		MaxFiles:        cfg.Logging.MaxFiles,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		ConsoleOutput:   cfg.Logging.ConsoleOutput,
	}); err != nil {
		logger.Fatal("Failed to initialize logging: %v", err)
	}
	defer logger.Get().Close()

	// Application startup
	logger.Info("Forecastmail - Scheduled Weather Report Mailer")
	logger.Debug("Configuration loaded from: %s", *configPath)
	logger.Debug("Forecast location: %.4f, %.4f (%s)", cfg.Location.Latitude, cfg.Location.Longitude, cfg.Location.Name)

	pipe, err := pipeline.New(cfg)
	if err != nil {
		logger.Fatal("Failed to build pipeline: %v", err)
	}

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := pipe.Run(ctx); err != nil {
			logger.Fatal("Forecast run failed: %v", err)
		}
		return
	}

	interval, err := cfg.ScheduleInterval()
	if err != nil {
		logger.Fatal("Invalid schedule interval: %v", err)
	}

	sched := scheduler.New(pipe, interval, cfg.Schedule.RunOnStartup)
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Run until a termination signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down")
}

// getDefaultConfigPath returns a cross-platform default config path
func getDefaultConfigPath() string {
	return filepath.Clean("config.toml")
}
