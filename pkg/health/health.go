package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/lumen/pkg/mqtt"
	"github.com/saaga0h/lumen/pkg/sysfs"
)

// Checker provides health check functionality for the backlight agent
type Checker struct {
	backlight sysfs.Backlight
	mqtt      mqtt.Client // nil when telemetry is disabled
	logger    *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(backlight sysfs.Backlight, mqttClient mqtt.Client, logger *slog.Logger) *Checker {
	return &Checker{
		backlight: backlight,
		mqtt:      mqttClient,
		logger:    logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of the agent's collaborators
type Services struct {
	Backlight string `json:"backlight"`
	MQTT      string `json:"mqtt,omitempty"`
}

// HandlerFunc returns a minimal liveness handler: 200 while the process is
// alive, without touching any device files
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc returns a handler that probes the backlight device and
// reports MQTT connectivity when telemetry is enabled
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{}

		if _, err := h.backlight.Current(); err != nil {
			services.Backlight = "unreadable"
		} else {
			services.Backlight = "readable"
		}

		if h.mqtt != nil {
			if h.mqtt.IsConnected() {
				services.MQTT = "connected"
			} else {
				services.MQTT = "disconnected"
			}
		}

		status := "healthy"
		statusCode := http.StatusOK
		if services.Backlight == "unreadable" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
