//go:build linux

package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var iioBase = "/sys/bus/iio/devices"

// iioSampler reads raw ADC values from a Linux IIO device's
// in_voltage<N>_raw attributes.
type iioSampler struct {
	devicePath string
}

// OpenIIO opens IIO device N under /sys/bus/iio/devices.
func OpenIIO(device int) (Sampler, error) {
	p := filepath.Join(iioBase, fmt.Sprintf("iio:device%d", device))
	if _, err := os.Stat(p); err != nil {
		return nil, fmt.Errorf("sensor: iio device %d not found: %w", device, err)
	}
	return &iioSampler{devicePath: p}, nil
}

func (s *iioSampler) Sample(channel int) int {
	p := filepath.Join(s.devicePath, fmt.Sprintf("in_voltage%d_raw", channel))
	v, err := readRaw(p)
	if err != nil {
		return 0
	}
	return clamp(v)
}

func (s *iioSampler) Close() error { return nil }

func readRaw(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("sensor: read %s: %w", path, err)
	}
	return parseRaw(string(b))
}

func parseRaw(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("sensor: raw value empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("sensor: parse raw value %q: %w", s, err)
	}
	return n, nil
}
