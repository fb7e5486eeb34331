//go:build linux

package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// OpenGPIO returns a Driver which drives the given GPIO as a digital output
// using the Linux GPIO character device. It maps any duty > 0 to ON and
// duty == 0 to OFF, for loads switched by a transistor rather than dimmed.
func OpenGPIO(pin int) (Driver, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("pwm: invalid gpio pin %d", pin)
	}

	// On Pi, line names are commonly "GPIO18", etc.
	lineName := fmt.Sprintf("GPIO%d", pin)

	chipCandidates := []string{"/dev/gpiochip0"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("pinbus"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodOutput{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("pwm: gpio line %q not found (or busy)", lineName)
}

type gpiodOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodOutput) SetDuty(v int) error {
	if g == nil || g.line == nil {
		return fmt.Errorf("pwm: gpio driver not initialized")
	}
	out := 0
	if v > 0 {
		out = 1
	}
	return g.line.SetValue(out)
}

func (g *gpiodOutput) Close() error {
	if g == nil || g.line == nil {
		return nil
	}
	// Leave the pin OFF.
	_ = g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
