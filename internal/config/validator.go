package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks if the configuration is valid and fills in defaults
func Validate(cfg *Config) error {
	// Validate instance_id
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5
	}

	// Validate camera config
	switch cfg.Camera.Backend {
	case "":
		cfg.Camera.Backend = "gstreamer"
	case "gstreamer", "opencv", "mock":
	default:
		return fmt.Errorf("camera.backend must be 'gstreamer', 'opencv' or 'mock', got '%s'", cfg.Camera.Backend)
	}
	if cfg.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0")
	}
	if cfg.Camera.Width <= 0 {
		cfg.Camera.Width = 1920
	}
	if cfg.Camera.Height <= 0 {
		cfg.Camera.Height = 1080
	}
	if cfg.Camera.FPS <= 0 {
		cfg.Camera.FPS = 30
	}
	if cfg.Camera.FPS > 60 {
		return fmt.Errorf("camera.fps must be <= 60, got %d", cfg.Camera.FPS)
	}

	// Window defaults; out-of-range values are clamped by the parameter
	// store at startup rather than rejected here.
	if cfg.Window.Width <= 0 {
		cfg.Window.Width = 250
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = 250
	}
	if cfg.Window.BorderWidth < 0 {
		return fmt.Errorf("window.border_width must be >= 0")
	}
	if cfg.Window.BorderColor == "" {
		cfg.Window.BorderColor = "#343434"
	}
	if cfg.Window.BorderRadius == 0 {
		cfg.Window.BorderRadius = 12
	}

	// Zoom defaults
	if cfg.Zoom.Level == 0 {
		cfg.Zoom.Level = 1.0
	}
	if cfg.Zoom.Level < 0 {
		return fmt.Errorf("zoom.level must be >= 1.0")
	}

	// MQTT is optional: no broker means no remote control plane.
	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topics.Control == "" {
			cfg.MQTT.Topics.Control = fmt.Sprintf("faceover/control/%s", cfg.InstanceID)
		}
		if cfg.MQTT.Topics.Responses == "" {
			cfg.MQTT.Topics.Responses = fmt.Sprintf("faceover/responses/%s", cfg.InstanceID)
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
	}

	return nil
}
