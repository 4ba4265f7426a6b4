package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/lumen/pkg/config"
)

type fakeMQTT struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeMQTT) Connect(ctx context.Context) error { return nil }
func (f *fakeMQTT) Disconnect()                       {}
func (f *fakeMQTT) IsConnected() bool                 { return true }

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPublisher_OverrideEvent(t *testing.T) {
	broker := &fakeMQTT{}
	cfg := config.NewConfig()
	publisher := NewPublisher(broker, cfg, testLogger())

	publisher.PublishOverride(200, 120)

	require.Len(t, broker.topics, 1)
	assert.Equal(t, "lumen/context/backlight/backlight-agent", broker.topics[0])

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(broker.payloads[0], &msg))

	assert.Equal(t, "override", msg["event"])
	assert.Equal(t, float64(200), msg["lux"])
	assert.Equal(t, float64(120), msg["brightness"])
	assert.Equal(t, false, msg["automated"])
	assert.Contains(t, msg, "daylight")
	assert.Contains(t, msg, "timestamp")

	_, err := uuid.Parse(msg["event_id"].(string))
	assert.NoError(t, err, "event_id must be a valid UUID")
}

func TestPublisher_AdjustmentEvent(t *testing.T) {
	broker := &fakeMQTT{}
	cfg := config.NewConfig()
	publisher := NewPublisher(broker, cfg, testLogger())

	publisher.PublishAdjustment(200, 51, "default_mapping")

	require.Len(t, broker.payloads, 1)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(broker.payloads[0], &msg))

	assert.Equal(t, "adjustment", msg["event"])
	assert.Equal(t, "default_mapping", msg["source"])
	assert.Equal(t, true, msg["automated"])
}

func TestPublisher_BrokerFailureIsDropped(t *testing.T) {
	broker := &fakeMQTT{err: assert.AnError}
	cfg := config.NewConfig()
	publisher := NewPublisher(broker, cfg, testLogger())

	// Must not panic or block; the event is simply lost
	publisher.PublishAdjustment(200, 51, "learned_fit")
	assert.Empty(t, broker.payloads)
}
