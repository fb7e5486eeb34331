//go:build linux

package pwm

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// sysfsPWM drives a hardware PWM channel via /sys/class/pwm.
//
// On Raspberry Pi this needs a pwm overlay (e.g. `dtoverlay=pwm-2chan`) so the
// header pins are exposed as PWM channels. The output frequency is fixed;
// SetDuty scales the duty_cycle attribute within the configured period.
type sysfsPWM struct {
	pwmPath  string
	periodNS uint64
	enabled  bool
}

var pwmSysfsBase = "/sys/class/pwm"

const pwmPeriodNS = 1_000_000 // 1 kHz

// OpenSysfsPWM opens channel `channel` of /sys/class/pwm/pwmchip<chip>.
func OpenSysfsPWM(chip, channel int) (Driver, error) {
	if chip < 0 || channel < 0 {
		return nil, fmt.Errorf("pwm: invalid sysfs chip %d channel %d", chip, channel)
	}
	chipPath := filepath.Join(pwmSysfsBase, fmt.Sprintf("pwmchip%d", chip))
	n, err := readNPWM(filepath.Join(chipPath, "npwm"))
	if err != nil {
		return nil, fmt.Errorf("pwm: no sysfs pwmchip%d (is the pwm overlay enabled?): %w", chip, err)
	}
	if channel >= n {
		return nil, fmt.Errorf("pwm: pwmchip%d has %d channels, wanted channel %d", chip, n, channel)
	}

	d := &sysfsPWM{
		pwmPath: filepath.Join(chipPath, fmt.Sprintf("pwm%d", channel)),
	}
	if err := ensureExported(chipPath, d.pwmPath, channel); err != nil {
		return nil, err
	}
	if err := d.writeUint("period", pwmPeriodNS); err != nil {
		return nil, fmt.Errorf("pwm: set period: %w", err)
	}
	d.periodNS = pwmPeriodNS
	return d, nil
}

func (d *sysfsPWM) SetDuty(v int) error {
	ns := dutyToNS(v, d.periodNS)
	if err := d.writeUint("duty_cycle", ns); err != nil {
		return err
	}
	if !d.enabled {
		if err := d.writeBool("enable", true); err != nil {
			return err
		}
		d.enabled = true
	}
	return nil
}

func (d *sysfsPWM) Close() error {
	_ = d.writeUint("duty_cycle", 0)
	err := d.writeBool("enable", false)
	d.enabled = false
	return err
}

// dutyToNS maps a wire duty value (0..MaxDuty) onto a sysfs duty_cycle in
// nanoseconds. Out-of-range input is clamped.
func dutyToNS(v int, periodNS uint64) uint64 {
	if v < 0 {
		v = 0
	} else if v > MaxDuty {
		v = MaxDuty
	}
	return periodNS * uint64(v) / MaxDuty
}

func ensureExported(chipPath, pwmPath string, channel int) error {
	if _, err := os.Stat(pwmPath); err == nil {
		return nil
	}
	if err := writeSysfs(filepath.Join(chipPath, "export"), strconv.Itoa(channel)); err != nil {
		// Already exported by someone else is fine.
		if _, statErr := os.Stat(pwmPath); statErr == nil {
			return nil
		}
		return fmt.Errorf("pwm: export channel %d: %w", channel, err)
	}
	// udev can take a moment to create the node after export.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(pwmPath); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(pwmPath); err != nil {
		return fmt.Errorf("pwm: channel %d not created after export: %w", channel, err)
	}
	return nil
}

func (d *sysfsPWM) writeUint(name string, v uint64) error {
	return writeSysfs(filepath.Join(d.pwmPath, name), strconv.FormatUint(v, 10))
}

func (d *sysfsPWM) writeBool(name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return writeSysfs(filepath.Join(d.pwmPath, name), val)
}

func writeSysfs(path string, value string) error {
	// O_WRONLY without O_TRUNC/O_CREATE: some sysfs attributes reject
	// truncation flags even when mode bits allow writes.
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

func readNPWM(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse npwm %q: %w", s, err)
	}
	return n, nil
}
