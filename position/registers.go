package position

import (
	"fmt"
	"strings"
)

type register byte

// AS5600 register map (datasheet figure 21)
const (
	regZMCO       register = 0x00
	regZPosH      register = 0x01
	regZPosL      register = 0x02
	regMPosH      register = 0x03
	regMPosL      register = 0x04
	regMAngH      register = 0x05
	regMAngL      register = 0x06
	regConfH      register = 0x07
	regConfL      register = 0x08
	regStatus     register = 0x0B
	regRawAngleH  register = 0x0C
	regRawAngleL  register = 0x0D
	regAngleH     register = 0x0E
	regAngleL     register = 0x0F
	regAGC        register = 0x1A
	regMagnitudeH register = 0x1B
	regMagnitudeL register = 0x1C
	regBurn       register = 0xFF
)

// Bit-fields of the configuration and OTP counter registers.
var (
	fieldPowerMode   = field{reg: regConfL, shift: 0, width: 2}
	fieldHysteresis  = field{reg: regConfL, shift: 2, width: 2}
	fieldOutputStage = field{reg: regConfL, shift: 4, width: 2}
	fieldPWMFreq     = field{reg: regConfL, shift: 6, width: 2}
	fieldSlowFilter  = field{reg: regConfH, shift: 0, width: 2}
	fieldFastFilter  = field{reg: regConfH, shift: 2, width: 3}
	fieldWatchDog    = field{reg: regConfH, shift: 5, width: 1}
	fieldBurnCount   = field{reg: regZMCO, shift: 0, width: 2}
)

type PowerMode byte

const (
	PowerModeNominal PowerMode = iota
	PowerModeLPM1
	PowerModeLPM2
	PowerModeLPM3
)

var powerModeNames = []string{"nom", "lpm1", "lpm2", "lpm3"}

func (m PowerMode) Valid() bool { return m <= PowerModeLPM3 }

func (m PowerMode) String() string { return enumName(powerModeNames, byte(m)) }

func ParsePowerMode(s string) (PowerMode, error) {
	v, err := parseEnum("power mode", powerModeNames, s)
	return PowerMode(v), err
}

func (m PowerMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, byte(m))
	}
	return []byte(m.String()), nil
}

func (m *PowerMode) UnmarshalText(text []byte) error {
	v, err := ParsePowerMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

type Hysteresis byte

const (
	HysteresisOff Hysteresis = iota
	Hysteresis1LSB
	Hysteresis2LSB
	Hysteresis3LSB
)

var hysteresisNames = []string{"off", "1lsb", "2lsb", "3lsb"}

func (h Hysteresis) Valid() bool { return h <= Hysteresis3LSB }

func (h Hysteresis) String() string { return enumName(hysteresisNames, byte(h)) }

func ParseHysteresis(s string) (Hysteresis, error) {
	v, err := parseEnum("hysteresis", hysteresisNames, s)
	return Hysteresis(v), err
}

func (h Hysteresis) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, byte(h))
	}
	return []byte(h.String()), nil
}

func (h *Hysteresis) UnmarshalText(text []byte) error {
	v, err := ParseHysteresis(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

type OutputStage byte

const (
	// OutputStageAnalogFull is a ratiometric analog output from GND to VDD.
	OutputStageAnalogFull OutputStage = iota
	// OutputStageAnalogReduced is an analog output from 10% to 90% of VDD.
	OutputStageAnalogReduced
	OutputStagePWM
)

var outputStageNames = []string{"analog-full", "analog-reduced", "pwm"}

func (o OutputStage) Valid() bool { return o <= OutputStagePWM }

func (o OutputStage) String() string { return enumName(outputStageNames, byte(o)) }

func ParseOutputStage(s string) (OutputStage, error) {
	v, err := parseEnum("output stage", outputStageNames, s)
	return OutputStage(v), err
}

func (o OutputStage) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, byte(o))
	}
	return []byte(o.String()), nil
}

func (o *OutputStage) UnmarshalText(text []byte) error {
	v, err := ParseOutputStage(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

type PWMFrequency byte

const (
	PWMFrequency115Hz PWMFrequency = iota
	PWMFrequency230Hz
	PWMFrequency460Hz
	PWMFrequency920Hz
)

var pwmFrequencyNames = []string{"115hz", "230hz", "460hz", "920hz"}

func (f PWMFrequency) Valid() bool { return f <= PWMFrequency920Hz }

func (f PWMFrequency) String() string { return enumName(pwmFrequencyNames, byte(f)) }

func ParsePWMFrequency(s string) (PWMFrequency, error) {
	v, err := parseEnum("pwm frequency", pwmFrequencyNames, s)
	return PWMFrequency(v), err
}

func (f PWMFrequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, byte(f))
	}
	return []byte(f.String()), nil
}

func (f *PWMFrequency) UnmarshalText(text []byte) error {
	v, err := ParsePWMFrequency(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

type SlowFilter byte

const (
	SlowFilter16x SlowFilter = iota
	SlowFilter8x
	SlowFilter4x
	SlowFilter2x
)

var slowFilterNames = []string{"16x", "8x", "4x", "2x"}

func (f SlowFilter) Valid() bool { return f <= SlowFilter2x }

func (f SlowFilter) String() string { return enumName(slowFilterNames, byte(f)) }

func ParseSlowFilter(s string) (SlowFilter, error) {
	v, err := parseEnum("slow filter", slowFilterNames, s)
	return SlowFilter(v), err
}

func (f SlowFilter) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, byte(f))
	}
	return []byte(f.String()), nil
}

func (f *SlowFilter) UnmarshalText(text []byte) error {
	v, err := ParseSlowFilter(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// FastFilterThreshold values are not ordered by threshold: 10 LSB is encoded as 7.
type FastFilterThreshold byte

const (
	FastFilterSlowOnly FastFilterThreshold = 0x00
	FastFilter6LSB     FastFilterThreshold = 0x01
	FastFilter7LSB     FastFilterThreshold = 0x02
	FastFilter9LSB     FastFilterThreshold = 0x03
	FastFilter18LSB    FastFilterThreshold = 0x04
	FastFilter21LSB    FastFilterThreshold = 0x05
	FastFilter24LSB    FastFilterThreshold = 0x06
	FastFilter10LSB    FastFilterThreshold = 0x07
)

var fastFilterNames = []string{"slow-only", "6lsb", "7lsb", "9lsb", "18lsb", "21lsb", "24lsb", "10lsb"}

func (f FastFilterThreshold) Valid() bool { return f <= FastFilter10LSB }

func (f FastFilterThreshold) String() string { return enumName(fastFilterNames, byte(f)) }

func ParseFastFilterThreshold(s string) (FastFilterThreshold, error) {
	v, err := parseEnum("fast filter threshold", fastFilterNames, s)
	return FastFilterThreshold(v), err
}

func (f FastFilterThreshold) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParameter, byte(f))
	}
	return []byte(f.String()), nil
}

func (f *FastFilterThreshold) UnmarshalText(text []byte) error {
	v, err := ParseFastFilterThreshold(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Burn is a command written to the BURN register. BurnAngle and BurnSetting permanently
// program the OTP memory.
type Burn byte

const (
	BurnLoadOTP1 Burn = 0x01
	BurnLoadOTP2 Burn = 0x11
	BurnLoadOTP3 Burn = 0x10
	// BurnAngle stores ZPOS and MPOS. The chip accepts it at most 3 times.
	BurnAngle Burn = 0x80
	// BurnSetting stores MANG and CONF. The chip accepts it once, and only while ZMCO is 0.
	BurnSetting Burn = 0x40
)

func (b Burn) Valid() bool {
	switch b {
	case BurnLoadOTP1, BurnLoadOTP2, BurnLoadOTP3, BurnAngle, BurnSetting:
		return true
	}
	return false
}

func (b Burn) String() string {
	switch b {
	case BurnLoadOTP1:
		return "cmd1"
	case BurnLoadOTP2:
		return "cmd2"
	case BurnLoadOTP3:
		return "cmd3"
	case BurnAngle:
		return "angle"
	case BurnSetting:
		return "setting"
	}
	return fmt.Sprintf("burn(%#02x)", byte(b))
}

func ParseBurn(s string) (Burn, error) {
	for _, b := range []Burn{BurnLoadOTP1, BurnLoadOTP2, BurnLoadOTP3, BurnAngle, BurnSetting} {
		if strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown burn command %q", ErrInvalidParameter, s)
}

// Status is the content of the STATUS register.
type Status byte

const (
	// StatusMagnetTooStrong is set on AGC minimum gain overflow.
	StatusMagnetTooStrong Status = 1 << 3
	// StatusMagnetTooWeak is set on AGC maximum gain overflow.
	StatusMagnetTooWeak Status = 1 << 4
	// StatusMagnetDetected is set while a magnet is in range.
	StatusMagnetDetected Status = 1 << 5
)

func (s Status) Has(flag Status) bool { return s&flag == flag }

func (s Status) MagnetDetected() bool  { return s.Has(StatusMagnetDetected) }
func (s Status) MagnetTooWeak() bool   { return s.Has(StatusMagnetTooWeak) }
func (s Status) MagnetTooStrong() bool { return s.Has(StatusMagnetTooStrong) }

func (s Status) String() string {
	var flags []string
	if s.MagnetDetected() {
		flags = append(flags, "MD")
	}
	if s.MagnetTooWeak() {
		flags = append(flags, "ML")
	}
	if s.MagnetTooStrong() {
		flags = append(flags, "MH")
	}
	if len(flags) == 0 {
		return "none"
	}
	return strings.Join(flags, "|")
}

func enumName(names []string, v byte) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("invalid(%d)", v)
}

func parseEnum(kind string, names []string, s string) (byte, error) {
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return byte(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q (expected one of %s)", ErrInvalidParameter, kind, s, strings.Join(names, ", "))
}
