package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/lumen/pkg/config"
	"github.com/saaga0h/lumen/pkg/mqtt"
)

// Publisher emits backlight context events over MQTT. Failures are logged
// and dropped; telemetry must never stall or fail the control loop.
type Publisher struct {
	mqtt   mqtt.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewPublisher creates a publisher over an already-constructed MQTT client
func NewPublisher(mqttClient mqtt.Client, cfg *config.Config, logger *slog.Logger) *Publisher {
	return &Publisher{
		mqtt:   mqttClient,
		cfg:    cfg,
		logger: logger,
	}
}

// PublishAdjustment emits a context event for an automatic brightness change
func (p *Publisher) PublishAdjustment(lux, brightness int, source string) {
	p.publish("adjustment", lux, brightness, map[string]interface{}{
		"source":    source,
		"automated": true,
	})
}

// PublishOverride emits a context event for a detected manual override
func (p *Publisher) PublishOverride(lux, brightness int) {
	p.publish("override", lux, brightness, map[string]interface{}{
		"automated": false,
		"learned":   true,
	})
}

func (p *Publisher) publish(event string, lux, brightness int, extra map[string]interface{}) {
	now := time.Now()

	msg := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"source":     p.cfg.ServiceName,
		"type":       "backlight",
		"event":      event,
		"lux":        lux,
		"brightness": brightness,
		"daylight":   ComputeDaylight(p.cfg.Latitude, p.cfg.Longitude, now),
		"timestamp":  now.Format(time.RFC3339),
	}
	for k, v := range extra {
		msg[k] = v
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Failed to marshal context event", "event", event, "error", err)
		return
	}

	topic := fmt.Sprintf("%s/context/backlight/%s", p.cfg.TopicPrefix, p.cfg.ServiceName)
	if err := p.mqtt.Publish(topic, 0, false, payload); err != nil {
		p.logger.Warn("Failed to publish context event", "topic", topic, "error", err)
		return
	}

	p.logger.Debug("Published context event", "topic", topic, "event", event)
}
