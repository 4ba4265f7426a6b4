package mqtt

import "context"

// Client is the publish-side MQTT surface the agent uses for context events.
// Kept behind an interface so telemetry can be exercised with a fake broker
// in tests.
type Client interface {
	// Connect establishes a connection to the MQTT broker
	Connect(ctx context.Context) error

	// Disconnect closes the connection to the MQTT broker
	Disconnect()

	// Publish publishes a message to a topic
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// IsConnected returns whether the client is currently connected
	IsConnected() bool
}
