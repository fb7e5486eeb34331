package bridge

import (
	"github.com/pinbus/pinbus/logs"
	"github.com/pinbus/pinbus/message"
	"github.com/pinbus/pinbus/pwm"
)

// Applier applies pwm commands from inbound items to physical pins.
//
// Absence of a command for a pin is the normal "leave unchanged" case, not an
// error: entries that are missing or don't decode as an in-range integer are
// skipped without comment. Only a missing pwm object altogether rates a
// diagnostic line.
type Applier struct {
	log     *logs.Loggers
	pins    []int
	drivers map[int]pwm.Driver
	status  *Status
}

func NewApplier(l *logs.Loggers, pins []int, drivers map[int]pwm.Driver, st *Status) *Applier {
	return &Applier{
		log:     l,
		pins:    pins,
		drivers: drivers,
		status:  st,
	}
}

// Apply returns the number of pins written.
func (a *Applier) Apply(it *message.Item) int {
	if !it.HasPWM() {
		a.log.Info.Printf("no pwm commands in message")
		return 0
	}
	applied := 0
	for _, pin := range a.pins {
		v, ok := it.Duty(pin)
		if !ok {
			continue
		}
		if v < 0 || v > pwm.MaxDuty {
			a.log.Warn.Printf("pin %d: duty %d out of range 0..%d, ignoring", pin, v, pwm.MaxDuty)
			continue
		}
		d, ok := a.drivers[pin]
		if !ok {
			a.log.Warn.Printf("pin %d: no driver, ignoring duty %d", pin, v)
			continue
		}
		if err := d.SetDuty(v); err != nil {
			a.log.Error.Printf("pin %d: set duty %d: %v", pin, v, err)
			continue
		}
		if a.status != nil {
			a.status.SetDuty(pin, v)
		}
		applied++
	}
	return applied
}

// Close releases all pin drivers, leaving outputs in their safe state.
func (a *Applier) Close() {
	for pin, d := range a.drivers {
		if err := d.Close(); err != nil {
			a.log.Warn.Printf("pin %d: close: %v", pin, err)
		}
	}
}
