//go:build !linux

package pwm

import "fmt"

// Stub implementations for non-Linux platforms.

func OpenGPIO(pin int) (Driver, error) {
	return nil, fmt.Errorf("pwm: gpio unsupported on this platform")
}

func OpenSysfsPWM(chip, channel int) (Driver, error) {
	return nil, fmt.Errorf("pwm: sysfs pwm unsupported on this platform")
}
