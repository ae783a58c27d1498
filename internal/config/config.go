package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete faceover configuration
type Config struct {
	InstanceID       string       `yaml:"instance_id"`
	ShutdownTimeoutS int          `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	HealthPort       int          `yaml:"health_port"`        // HTTP health endpoint port (0 disables)
	Camera           CameraConfig `yaml:"camera"`
	Window           WindowConfig `yaml:"window"`
	Zoom             ZoomConfig   `yaml:"zoom"`
	MQTT             MQTTConfig   `yaml:"mqtt"`
}

// CameraConfig contains capture settings
type CameraConfig struct {
	Backend string `yaml:"backend"` // gstreamer, opencv, mock
	Device  int    `yaml:"device"`  // /dev/video index
	Width   int    `yaml:"width"`   // capture width (default: 1920)
	Height  int    `yaml:"height"`  // capture height (default: 1080)
	FPS     int    `yaml:"fps"`     // capture frame rate (default: 30)
	Mirror  bool   `yaml:"mirror"`  // horizontal flip for selfie view
}

// WindowConfig contains the overlay window geometry
type WindowConfig struct {
	Width        int    `yaml:"width"`         // outer width (default: 250)
	Height       int    `yaml:"height"`        // outer height (default: 250)
	BorderWidth  int    `yaml:"border_width"`  // default: 5
	BorderRadius int    `yaml:"border_radius"` // default: 12
	BorderColor  string `yaml:"border_color"`  // hex, default: #343434
}

// ZoomConfig contains the initial zoom and pan state
type ZoomConfig struct {
	Level float64 `yaml:"level"` // 1.0 to 3.0
	PanX  float64 `yaml:"pan_x"` // -1.0 to 1.0
	PanY  float64 `yaml:"pan_y"` // -1.0 to 1.0
}

// MQTTConfig contains MQTT broker settings
type MQTTConfig struct {
	Broker string     `yaml:"broker"`
	Topics MQTTTopics `yaml:"topics"`
	QoS    byte       `yaml:"qos"`
}

// MQTTTopics contains topic templates
type MQTTTopics struct {
	Control   string `yaml:"control"`
	Responses string `yaml:"responses"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
