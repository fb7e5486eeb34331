package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

const (
	// Analog messages always carry exactly this many samples.
	NumAnalogSamples = 6
)

// Config is the device profile. It's loaded once at startup and passed by
// value into the bridge; nothing mutates it afterwards.
type Config struct {
	Channel string       `yaml:"channel"`
	Sender  SenderConfig `yaml:"sender"`

	// Pins we accept pwm commands for, in apply order.
	Pins []int `yaml:"pins"`

	// Analog input channels sampled for each outbound message.
	// Must contain exactly NumAnalogSamples entries.
	AnalogChannels []int `yaml:"analog_channels"`

	PublishInterval time.Duration `yaml:"publish_interval"`
	ReplyDeadline   time.Duration `yaml:"reply_deadline"`

	// Upper bound on an inbound reply payload. Oversized payloads are
	// rejected outright rather than truncated.
	MaxPayloadBytes int `yaml:"max_payload_bytes"`
}

type SenderConfig struct {
	Name string `yaml:"name"`
	MAC  string `yaml:"mac"`

	// Filled in by Load from MAC.
	MACLastByte int `yaml:"-"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Channel == "" {
		return Config{}, fmt.Errorf("channel is required")
	}
	if cfg.Sender.Name == "" {
		cfg.Sender.Name = "pinbus"
	}
	if cfg.Sender.MAC == "" {
		return Config{}, fmt.Errorf("sender.mac is required")
	}
	hw, err := net.ParseMAC(cfg.Sender.MAC)
	if err != nil {
		return Config{}, fmt.Errorf("sender.mac '%s' invalid: %w", cfg.Sender.MAC, err)
	}
	cfg.Sender.MACLastByte = int(hw[len(hw)-1])

	if len(cfg.Pins) == 0 {
		cfg.Pins = []int{8, 9}
	}
	for i, p := range cfg.Pins {
		if p < 0 {
			return Config{}, fmt.Errorf("pins[%d] is negative", i)
		}
		if slices.Contains(cfg.Pins[:i], p) {
			return Config{}, fmt.Errorf("pin %d listed more than once", p)
		}
	}

	if len(cfg.AnalogChannels) == 0 {
		cfg.AnalogChannels = []int{0, 1, 2, 3, 4, 5}
	}
	if len(cfg.AnalogChannels) != NumAnalogSamples {
		return Config{}, fmt.Errorf("analog_channels must have exactly %d entries, got %d", NumAnalogSamples, len(cfg.AnalogChannels))
	}
	for i, ch := range cfg.AnalogChannels {
		if ch < 0 {
			return Config{}, fmt.Errorf("analog_channels[%d] is negative", i)
		}
	}

	if cfg.PublishInterval == 0 {
		cfg.PublishInterval = 5 * time.Second
	}
	if cfg.PublishInterval < 0 {
		return Config{}, fmt.Errorf("publish_interval must be > 0")
	}
	if cfg.ReplyDeadline == 0 {
		cfg.ReplyDeadline = 10 * time.Second
	}
	if cfg.ReplyDeadline < 0 {
		return Config{}, fmt.Errorf("reply_deadline must be > 0")
	}

	if cfg.MaxPayloadBytes == 0 {
		cfg.MaxPayloadBytes = 4096
	}
	if cfg.MaxPayloadBytes < 256 {
		return Config{}, fmt.Errorf("max_payload_bytes %d too small, minimum 256", cfg.MaxPayloadBytes)
	}

	return cfg, nil
}
