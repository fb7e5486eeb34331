//go:build !linux

package sensor

import "fmt"

// Stub implementation for non-Linux platforms.
func OpenIIO(device int) (Sampler, error) {
	return nil, fmt.Errorf("sensor: iio unsupported on this platform")
}
