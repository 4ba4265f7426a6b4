package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/lumen/internal/controller"
	"github.com/saaga0h/lumen/internal/telemetry"
	"github.com/saaga0h/lumen/pkg/config"
	"github.com/saaga0h/lumen/pkg/health"
	"github.com/saaga0h/lumen/pkg/mqtt"
	"github.com/saaga0h/lumen/pkg/sysfs"
)

func main() {
	// Load configuration with hierarchy: defaults → file → env → flags
	cfg := config.NewConfig()
	if err := cfg.LoadFromFile(os.Getenv("LUMEN_CONFIG_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting LUMEN Backlight Agent",
		"service_name", cfg.ServiceName,
		"sensor_path", cfg.SensorPath,
		"preferences_file", cfg.PreferencesFile,
		"log_level", cfg.LogLevel)

	// Resolve the backlight device; refuse to run without one
	devicePath := cfg.BacklightPath
	if devicePath == "" {
		resolved, err := sysfs.Discover(cfg.BacklightBasePath)
		if err != nil {
			logger.Error("Unable to control screen brightness", "error", err)
			os.Exit(1)
		}
		devicePath = resolved
	}

	backlight, err := sysfs.NewBacklight(devicePath)
	if err != nil {
		logger.Error("Failed to bind backlight device", "path", devicePath, "error", err)
		os.Exit(1)
	}
	logger.Info("Backlight device resolved", "path", devicePath, "device_max", backlight.Max())

	// Clamp the configured ceiling to what the device reports
	if backlight.Max() < cfg.BrightnessMax {
		logger.Info("Clamping brightness maximum to device limit",
			"configured", cfg.BrightnessMax,
			"device_max", backlight.Max())
		cfg.BrightnessMax = backlight.Max()
	}

	sensor := sysfs.NewSensor(cfg.SensorPath)
	store := controller.NewSampleStore(cfg.PreferencesFile, cfg.MaxSamples, logger)

	// Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Optional MQTT telemetry
	var mqttClient mqtt.Client
	var publisher controller.ContextPublisher
	if cfg.TelemetryEnabled {
		mqttClient = mqtt.NewClient(cfg, logger)
		if err := mqttClient.Connect(ctx); err != nil {
			logger.Warn("Telemetry disabled, MQTT connection failed", "error", err)
			mqttClient = nil
		} else {
			publisher = telemetry.NewPublisher(mqttClient, cfg, logger)
		}
	}

	// Create the backlight agent
	agent := controller.NewAgent(sensor, backlight, store, cfg, logger, publisher)

	// Start health check server
	healthChecker := health.NewChecker(backlight, mqttClient, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	// Start agent in a goroutine
	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	// Wait for shutdown signal or agent error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	// Graceful shutdown
	logger.Info("Initiating graceful shutdown")
	cancel()

	if mqttClient != nil {
		mqttClient.Disconnect()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Backlight agent shutdown complete")
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detail", checker.DetailedHandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
