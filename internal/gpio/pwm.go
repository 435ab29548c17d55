package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

// DefaultPWMChip is the sysfs PWM chip used unless configured otherwise.
const DefaultPWMChip = "/sys/class/pwm/pwmchip0"

// DefaultPWMPeriod is 1 kHz, fast enough that dimmed lamps do not flicker.
const DefaultPWMPeriod = time.Millisecond

// PWMLights dims lamps through sysfs PWM channels.
type PWMLights struct {
	chip     string
	channels [3]int
	period   time.Duration
}

// NewPWMLights exports the channels of chip if needed, sets their period and
// enables them at zero duty.
func NewPWMLights(chip string, channels [3]int, period time.Duration) (*PWMLights, error) {
	if period <= 0 {
		period = DefaultPWMPeriod
	}
	p := &PWMLights{chip: chip, channels: channels, period: period}

	for i, ch := range channels {
		dir := p.channelDir(i)
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			if err := writeSysfs(filepath.Join(chip, "export"), strconv.Itoa(ch)); err != nil {
				return nil, fmt.Errorf("export %s channel %d: %w", logic.Colors[i], ch, err)
			}
		}
		if err := writeSysfs(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
			return nil, fmt.Errorf("reset %s duty: %w", logic.Colors[i], err)
		}
		if err := writeSysfs(filepath.Join(dir, "period"), strconv.FormatInt(period.Nanoseconds(), 10)); err != nil {
			return nil, fmt.Errorf("set %s period: %w", logic.Colors[i], err)
		}
		if err := writeSysfs(filepath.Join(dir, "enable"), "1"); err != nil {
			return nil, fmt.Errorf("enable %s: %w", logic.Colors[i], err)
		}
	}
	return p, nil
}

func (p *PWMLights) channelDir(i int) string {
	return filepath.Join(p.chip, fmt.Sprintf("pwm%d", p.channels[i]))
}

// DutyNanos converts a 0..255 duty to the sysfs duty_cycle for period.
func DutyNanos(duty uint8, period time.Duration) int64 {
	return period.Nanoseconds() * int64(duty) / 255
}

// SetDuty implements Lights.
func (p *PWMLights) SetDuty(c logic.Color, duty uint8) {
	ns := DutyNanos(duty, p.period)
	if err := writeSysfs(filepath.Join(p.channelDir(int(c)), "duty_cycle"), strconv.FormatInt(ns, 10)); err != nil {
		log.Warn("Failed to set lamp duty", "lamp", c, "duty", duty, "error", err)
	}
}

// Close turns the lamps off and disables the channels. Channels stay exported.
func (p *PWMLights) Close() error {
	var errs []error
	for i := range p.channels {
		dir := p.channelDir(i)
		if err := writeSysfs(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
			errs = append(errs, err)
		}
		if err := writeSysfs(filepath.Join(dir, "enable"), "0"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeSysfs(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
