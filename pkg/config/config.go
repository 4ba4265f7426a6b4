package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the LUMEN backlight agent
type Config struct {
	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Device paths
	SensorPath        string
	BacklightBasePath string
	BacklightPath     string // resolved device directory; discovered when empty

	// Brightness mapping
	BrightnessMin int
	BrightnessMax int
	SensorMaxLux  int

	// Control loop timing
	PollIntervalMs   int
	OverrideSettleMs int

	// Override detection and preference learning
	OverrideThreshold int
	PreferencesFile   string
	MaxSamples        int

	// Telemetry (optional MQTT context publishing)
	TelemetryEnabled bool
	MQTTBroker       string
	MQTTPort         int
	MQTTUser         string
	MQTTPassword     string
	MQTTClientID     string
	TopicPrefix      string

	// Daylight context for telemetry (Helsinki coordinates by default)
	Latitude  float64
	Longitude float64
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ServiceName: "backlight-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		SensorPath:        "/sys/bus/iio/devices/iio:device0/in_illuminance_raw",
		BacklightBasePath: "/sys/class/backlight",
		BacklightPath:     "",

		BrightnessMin: 0,
		BrightnessMax: 255,
		SensorMaxLux:  1000,

		PollIntervalMs:   500,
		OverrideSettleMs: 5000,

		OverrideThreshold: 5,
		PreferencesFile:   "brightness_data.json",
		MaxSamples:        100,

		TelemetryEnabled: false,
		MQTTBroker:       "localhost",
		MQTTPort:         1883,
		MQTTUser:         "",
		MQTTPassword:     "",
		MQTTClientID:     "",
		TopicPrefix:      "lumen",

		Latitude:  60.1695,
		Longitude: 24.9354,
	}
}

// fileValues mirrors Config for the optional YAML file layer. Pointer fields
// so an absent key leaves the default untouched.
type fileValues struct {
	ServiceName       *string  `yaml:"service_name"`
	HealthPort        *int     `yaml:"health_port"`
	LogLevel          *string  `yaml:"log_level"`
	SensorPath        *string  `yaml:"sensor_path"`
	BacklightBasePath *string  `yaml:"backlight_base_path"`
	BacklightPath     *string  `yaml:"backlight_path"`
	BrightnessMin     *int     `yaml:"brightness_min"`
	BrightnessMax     *int     `yaml:"brightness_max"`
	SensorMaxLux      *int     `yaml:"sensor_max_lux"`
	PollIntervalMs    *int     `yaml:"poll_interval_ms"`
	OverrideSettleMs  *int     `yaml:"override_settle_ms"`
	OverrideThreshold *int     `yaml:"override_threshold"`
	PreferencesFile   *string  `yaml:"preferences_file"`
	MaxSamples        *int     `yaml:"max_samples"`
	TelemetryEnabled  *bool    `yaml:"telemetry_enabled"`
	MQTTBroker        *string  `yaml:"mqtt_broker"`
	MQTTPort          *int     `yaml:"mqtt_port"`
	MQTTUser          *string  `yaml:"mqtt_user"`
	MQTTPassword      *string  `yaml:"mqtt_password"`
	MQTTClientID      *string  `yaml:"mqtt_client_id"`
	TopicPrefix       *string  `yaml:"topic_prefix"`
	Latitude          *float64 `yaml:"latitude"`
	Longitude         *float64 `yaml:"longitude"`
}

// LoadFromFile overlays configuration from a YAML file. An empty path is a
// no-op; a present but unreadable or malformed file is an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fv fileValues
	if err := yaml.Unmarshal(data, &fv); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyString(&c.ServiceName, fv.ServiceName)
	applyInt(&c.HealthPort, fv.HealthPort)
	applyString(&c.LogLevel, fv.LogLevel)
	applyString(&c.SensorPath, fv.SensorPath)
	applyString(&c.BacklightBasePath, fv.BacklightBasePath)
	applyString(&c.BacklightPath, fv.BacklightPath)
	applyInt(&c.BrightnessMin, fv.BrightnessMin)
	applyInt(&c.BrightnessMax, fv.BrightnessMax)
	applyInt(&c.SensorMaxLux, fv.SensorMaxLux)
	applyInt(&c.PollIntervalMs, fv.PollIntervalMs)
	applyInt(&c.OverrideSettleMs, fv.OverrideSettleMs)
	applyInt(&c.OverrideThreshold, fv.OverrideThreshold)
	applyString(&c.PreferencesFile, fv.PreferencesFile)
	applyInt(&c.MaxSamples, fv.MaxSamples)
	if fv.TelemetryEnabled != nil {
		c.TelemetryEnabled = *fv.TelemetryEnabled
	}
	applyString(&c.MQTTBroker, fv.MQTTBroker)
	applyInt(&c.MQTTPort, fv.MQTTPort)
	applyString(&c.MQTTUser, fv.MQTTUser)
	applyString(&c.MQTTPassword, fv.MQTTPassword)
	applyString(&c.MQTTClientID, fv.MQTTClientID)
	applyString(&c.TopicPrefix, fv.TopicPrefix)
	if fv.Latitude != nil {
		c.Latitude = *fv.Latitude
	}
	if fv.Longitude != nil {
		c.Longitude = *fv.Longitude
	}

	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

// LoadFromEnv loads configuration from environment variables with LUMEN_ prefix
func (c *Config) LoadFromEnv() {
	// Service configuration
	if v := os.Getenv("LUMEN_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("LUMEN_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("LUMEN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Device paths
	if v := os.Getenv("LUMEN_SENSOR_PATH"); v != "" {
		c.SensorPath = v
	}
	if v := os.Getenv("LUMEN_BACKLIGHT_BASE_PATH"); v != "" {
		c.BacklightBasePath = v
	}
	if v := os.Getenv("LUMEN_BACKLIGHT_PATH"); v != "" {
		c.BacklightPath = v
	}

	// Brightness mapping
	if v := os.Getenv("LUMEN_BRIGHTNESS_MIN"); v != "" {
		if min, err := strconv.Atoi(v); err == nil {
			c.BrightnessMin = min
		}
	}
	if v := os.Getenv("LUMEN_BRIGHTNESS_MAX"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.BrightnessMax = max
		}
	}
	if v := os.Getenv("LUMEN_SENSOR_MAX_LUX"); v != "" {
		if lux, err := strconv.Atoi(v); err == nil {
			c.SensorMaxLux = lux
		}
	}

	// Control loop timing
	if v := os.Getenv("LUMEN_POLL_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.PollIntervalMs = ms
		}
	}
	if v := os.Getenv("LUMEN_OVERRIDE_SETTLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.OverrideSettleMs = ms
		}
	}

	// Override detection and preference learning
	if v := os.Getenv("LUMEN_OVERRIDE_THRESHOLD"); v != "" {
		if threshold, err := strconv.Atoi(v); err == nil {
			c.OverrideThreshold = threshold
		}
	}
	if v := os.Getenv("LUMEN_PREFERENCES_FILE"); v != "" {
		c.PreferencesFile = v
	}
	if v := os.Getenv("LUMEN_MAX_SAMPLES"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxSamples = max
		}
	}

	// Telemetry configuration
	if v := os.Getenv("LUMEN_TELEMETRY_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.TelemetryEnabled = enabled
		}
	}
	if v := os.Getenv("LUMEN_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("LUMEN_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("LUMEN_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("LUMEN_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("LUMEN_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("LUMEN_TOPIC_PREFIX"); v != "" {
		c.TopicPrefix = v
	}

	// Daylight context
	if v := os.Getenv("LUMEN_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("LUMEN_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Device flags
	pflag.StringVar(&c.SensorPath, "sensor-path", c.SensorPath, "Ambient light sensor sysfs file")
	pflag.StringVar(&c.BacklightBasePath, "backlight-base-path", c.BacklightBasePath, "Sysfs backlight class directory to scan")
	pflag.StringVar(&c.BacklightPath, "backlight-path", c.BacklightPath, "Backlight device directory (skips discovery)")

	// Brightness mapping flags
	pflag.IntVar(&c.BrightnessMin, "brightness-min", c.BrightnessMin, "Minimum backlight level")
	pflag.IntVar(&c.BrightnessMax, "brightness-max", c.BrightnessMax, "Maximum backlight level (clamped to device max)")
	pflag.IntVar(&c.SensorMaxLux, "sensor-max-lux", c.SensorMaxLux, "Sensor reading mapped to maximum brightness")

	// Control loop flags
	pflag.IntVar(&c.PollIntervalMs, "poll-interval-ms", c.PollIntervalMs, "Control loop polling interval (ms)")
	pflag.IntVar(&c.OverrideSettleMs, "override-settle-ms", c.OverrideSettleMs, "Extended delay after a detected override (ms)")
	pflag.IntVar(&c.OverrideThreshold, "override-threshold", c.OverrideThreshold, "Brightness jump treated as a manual override")
	pflag.StringVar(&c.PreferencesFile, "preferences-file", c.PreferencesFile, "Learned preference sample file")
	pflag.IntVar(&c.MaxSamples, "max-samples", c.MaxSamples, "Maximum learned samples to retain")

	// Telemetry flags
	pflag.BoolVar(&c.TelemetryEnabled, "telemetry", c.TelemetryEnabled, "Publish context events over MQTT")
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	pflag.StringVar(&c.TopicPrefix, "topic-prefix", c.TopicPrefix, "MQTT topic prefix for context events")

	// Daylight flags
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight context")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight context")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("health port must be between 1 and 65535")
	}
	if c.SensorPath == "" {
		return fmt.Errorf("sensor path is required")
	}
	if c.BacklightBasePath == "" && c.BacklightPath == "" {
		return fmt.Errorf("either backlight base path or backlight path is required")
	}
	if c.BrightnessMin < 0 {
		return fmt.Errorf("brightness minimum must not be negative")
	}
	if c.BrightnessMax <= c.BrightnessMin {
		return fmt.Errorf("brightness maximum must be greater than minimum")
	}
	if c.SensorMaxLux <= 0 {
		return fmt.Errorf("sensor max lux must be positive")
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.OverrideSettleMs < c.PollIntervalMs {
		return fmt.Errorf("override settle interval must not be shorter than the poll interval")
	}
	if c.OverrideThreshold < 0 {
		return fmt.Errorf("override threshold must not be negative")
	}
	if c.PreferencesFile == "" {
		return fmt.Errorf("preferences file is required")
	}
	if c.MaxSamples <= 0 {
		return fmt.Errorf("max samples must be positive")
	}
	if c.TelemetryEnabled {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT broker is required when telemetry is enabled")
		}
		if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
			return fmt.Errorf("MQTT port must be between 1 and 65535")
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}
