package position

import (
	"context"
	"fmt"
)

// Config is a snapshot of the CONF register pair.
type Config struct {
	PowerMode           PowerMode           `yaml:"power_mode"`
	Hysteresis          Hysteresis          `yaml:"hysteresis"`
	OutputStage         OutputStage         `yaml:"output_stage"`
	PWMFrequency        PWMFrequency        `yaml:"pwm_frequency"`
	SlowFilter          SlowFilter          `yaml:"slow_filter"`
	FastFilterThreshold FastFilterThreshold `yaml:"fast_filter_threshold"`
	WatchDog            bool                `yaml:"watch_dog"`
}

// Validate reports the first field outside its domain.
func (c Config) Validate() error {
	switch {
	case !c.PowerMode.Valid():
		return fmt.Errorf("%w: power mode %d", ErrInvalidParameter, c.PowerMode)
	case !c.Hysteresis.Valid():
		return fmt.Errorf("%w: hysteresis %d", ErrInvalidParameter, c.Hysteresis)
	case !c.OutputStage.Valid():
		return fmt.Errorf("%w: output stage %d", ErrInvalidParameter, c.OutputStage)
	case !c.PWMFrequency.Valid():
		return fmt.Errorf("%w: pwm frequency %d", ErrInvalidParameter, c.PWMFrequency)
	case !c.SlowFilter.Valid():
		return fmt.Errorf("%w: slow filter %d", ErrInvalidParameter, c.SlowFilter)
	case !c.FastFilterThreshold.Valid():
		return fmt.Errorf("%w: fast filter threshold %d", ErrInvalidParameter, c.FastFilterThreshold)
	}
	return nil
}

func decodeConfig(hi, lo byte) Config {
	return Config{
		PowerMode:           PowerMode(fieldPowerMode.extract(lo)),
		Hysteresis:          Hysteresis(fieldHysteresis.extract(lo)),
		OutputStage:         OutputStage(fieldOutputStage.extract(lo)),
		PWMFrequency:        PWMFrequency(fieldPWMFreq.extract(lo)),
		SlowFilter:          SlowFilter(fieldSlowFilter.extract(hi)),
		FastFilterThreshold: FastFilterThreshold(fieldFastFilter.extract(hi)),
		WatchDog:            fieldWatchDog.extract(hi) == 1,
	}
}

// encode merges c into the current register pair, keeping reserved bits.
func (c Config) encode(hi, lo byte) (byte, byte) {
	lo = fieldPowerMode.insert(lo, byte(c.PowerMode))
	lo = fieldHysteresis.insert(lo, byte(c.Hysteresis))
	lo = fieldOutputStage.insert(lo, byte(c.OutputStage))
	lo = fieldPWMFreq.insert(lo, byte(c.PWMFrequency))
	hi = fieldSlowFilter.insert(hi, byte(c.SlowFilter))
	hi = fieldFastFilter.insert(hi, byte(c.FastFilterThreshold))
	var wd byte
	if c.WatchDog {
		wd = 1
	}
	hi = fieldWatchDog.insert(hi, wd)
	return hi, lo
}

// ReadConfig reads CONF_H and CONF_L in a single transaction.
func (s *AS5600) ReadConfig(ctx context.Context) (Config, error) {
	if !s.inited {
		return Config{}, ErrNotInitialized
	}
	buf := make([]byte, 2)
	err := s.read(ctx, regConfH, buf, "conf")
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(buf[0], buf[1]), nil
}

// ApplyConfig validates c and writes every CONF field with one read-modify-write of the
// register pair. Nothing is written when validation fails.
func (s *AS5600) ApplyConfig(ctx context.Context, c Config) error {
	if !s.inited {
		return ErrNotInitialized
	}
	err := c.Validate()
	if err != nil {
		return err
	}
	buf := make([]byte, 2)
	err = s.read(ctx, regConfH, buf, "conf")
	if err != nil {
		return err
	}
	hi, lo := c.encode(buf[0], buf[1])
	err = s.write(ctx, regConfH, []byte{hi, lo}, "conf")
	if err != nil {
		return err
	}
	wait := lowPowerPolling[c.PowerMode]
	if c.WatchDog && s.settle > wait {
		wait = s.settle
	}
	if wait > 0 {
		return s.transport.Delay(ctx, wait)
	}
	return nil
}

// Positions holds ZPOS, MPOS and MANG in degrees. Nil fields are left untouched.
type Positions struct {
	Start    *float64 `yaml:"start,omitempty"`
	Stop     *float64 `yaml:"stop,omitempty"`
	MaxAngle *float64 `yaml:"max_angle,omitempty"`
}

// Empty reports whether no position is set.
func (p Positions) Empty() bool {
	return p.Start == nil && p.Stop == nil && p.MaxAngle == nil
}

// Validate checks every set position with CheckDegrees.
func (p Positions) Validate() error {
	for _, v := range []struct {
		name string
		deg  *float64
	}{{"start", p.Start}, {"stop", p.Stop}, {"max angle", p.MaxAngle}} {
		if v.deg == nil {
			continue
		}
		err := CheckDegrees(*v.deg)
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	return nil
}

// ApplyPositions validates p and writes the set positions in start, stop, max angle order.
// Nothing is written when validation fails.
func (s *AS5600) ApplyPositions(ctx context.Context, p Positions) error {
	if !s.inited {
		return ErrNotInitialized
	}
	err := p.Validate()
	if err != nil {
		return err
	}
	if p.Start != nil {
		err = s.SetStartPosition(ctx, DegreesToRaw(*p.Start))
		if err != nil {
			return err
		}
	}
	if p.Stop != nil {
		err = s.SetStopPosition(ctx, DegreesToRaw(*p.Stop))
		if err != nil {
			return err
		}
	}
	if p.MaxAngle != nil {
		return s.SetMaxAngle(ctx, DegreesToRaw(*p.MaxAngle))
	}
	return nil
}
