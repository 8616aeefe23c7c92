package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/rotary"
)

// DefaultAS5600Address is the fixed 7-bit bus address of the AS5600
// (0x6C/0x6D on the wire).
const DefaultAS5600Address = 0x36

var (
	// ErrBus wraps every transport failure. The transport error itself is kept in the chain.
	ErrBus              = errors.New("as5600: bus transaction failed")
	ErrInvalidParameter = errors.New("as5600: invalid parameter")
	ErrNotInitialized   = errors.New("as5600: handle is not initialized")
)

// polling period of the low power modes; a new sample is available only after it elapses
var lowPowerPolling = map[PowerMode]time.Duration{
	PowerModeLPM1: 5 * time.Millisecond,
	PowerModeLPM2: 20 * time.Millisecond,
	PowerModeLPM3: 100 * time.Millisecond,
}

// AS5600 represents an AMS AS5600 12-bit magnetic rotary position sensor.
// See: https://ams.com/documents/20143/36005/AS5600_DS000365_5-00.pdf
//
// Usage: instantiate with NewAS5600, call Init, use the getters and setters, call Deinit.
// Configuration lives in the chip; every call round-trips to the bus. An AS5600 is not safe
// for concurrent use.
//
// Burn permanently programs the chip. The chip accepts an angle burn at most three times and a
// setting burn once; the driver does not enforce this, use BurnCount to check before burning.
type AS5600 struct {
	transport rotary.Transport
	address   byte
	settle    time.Duration
	inited    bool
}

type AS5600Config struct {
	Address     byte
	SettleDelay time.Duration
}

type AS5600ConfigOption func(*AS5600Config)

func WithAddress(address byte) AS5600ConfigOption {
	return func(c *AS5600Config) {
		c.Address = address
	}
}

// WithSettleDelay sets the wait issued after the watch-dog gets enabled.
func WithSettleDelay(d time.Duration) AS5600ConfigOption {
	return func(c *AS5600Config) {
		c.SettleDelay = d
	}
}

func NewAS5600(transport rotary.Transport, opts ...AS5600ConfigOption) *AS5600 {
	config := &AS5600Config{
		Address:     DefaultAS5600Address,
		SettleDelay: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &AS5600{transport: transport, address: config.Address, settle: config.SettleDelay}
}

// Init initializes the transport. It must succeed before any register access.
func (s *AS5600) Init(ctx context.Context) error {
	if s.transport == nil {
		return fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	err := s.transport.Init(ctx)
	if err != nil {
		s.transport.Debug("as5600: iic init failed", "error", err)
		return fmt.Errorf("%w: could not init transport: %w", ErrBus, err)
	}
	s.inited = true
	return nil
}

// Deinit releases the transport. The handle can be initialized again afterwards.
func (s *AS5600) Deinit(ctx context.Context) error {
	if !s.inited {
		return ErrNotInitialized
	}
	err := s.transport.Deinit(ctx)
	if err != nil {
		s.transport.Debug("as5600: iic deinit failed", "error", err)
		return fmt.Errorf("%w: could not deinit transport: %w", ErrBus, err)
	}
	s.inited = false
	return nil
}

func (s *AS5600) Initialized() bool {
	return s.inited
}

// Read returns the raw angle together with its value in degrees.
func (s *AS5600) Read(ctx context.Context) (uint16, float64, error) {
	raw, err := s.read12(ctx, regRawAngleH, "raw angle")
	if err != nil {
		return 0, 0, err
	}
	return raw, RawToDegrees(raw), nil
}

// RawAngle returns the unscaled and unmodified angle.
func (s *AS5600) RawAngle(ctx context.Context) (uint16, error) {
	return s.read12(ctx, regRawAngleH, "raw angle")
}

// Angle returns the angle scaled to the range programmed with ZPOS, MPOS and MANG.
func (s *AS5600) Angle(ctx context.Context) (uint16, error) {
	return s.read12(ctx, regAngleH, "angle")
}

func (s *AS5600) Status(ctx context.Context) (Status, error) {
	b, err := s.read8(ctx, regStatus, "status")
	return Status(b), err
}

// AGC returns the automatic gain control value. Its range is 0-255 at 5V and 0-128 at 3.3V.
func (s *AS5600) AGC(ctx context.Context) (byte, error) {
	return s.read8(ctx, regAGC, "agc")
}

func (s *AS5600) Magnitude(ctx context.Context) (uint16, error) {
	return s.read12(ctx, regMagnitudeH, "magnitude")
}

// BurnCount returns how many times ZPOS and MPOS have been permanently burned (0-3).
func (s *AS5600) BurnCount(ctx context.Context) (byte, error) {
	return s.readField(ctx, fieldBurnCount, "burn count")
}

func (s *AS5600) StartPosition(ctx context.Context) (uint16, error) {
	return s.read12(ctx, regZPosH, "start position")
}

// SetStartPosition writes ZPOS. pos is a raw 12-bit value, see DegreesToRaw.
func (s *AS5600) SetStartPosition(ctx context.Context, pos uint16) error {
	return s.write12(ctx, regZPosH, pos, "start position")
}

func (s *AS5600) StopPosition(ctx context.Context) (uint16, error) {
	return s.read12(ctx, regMPosH, "stop position")
}

// SetStopPosition writes MPOS. pos is a raw 12-bit value, see DegreesToRaw.
func (s *AS5600) SetStopPosition(ctx context.Context, pos uint16) error {
	return s.write12(ctx, regMPosH, pos, "stop position")
}

func (s *AS5600) MaxAngle(ctx context.Context) (uint16, error) {
	return s.read12(ctx, regMAngH, "max angle")
}

// SetMaxAngle writes MANG. ang is a raw 12-bit value, see DegreesToRaw.
func (s *AS5600) SetMaxAngle(ctx context.Context, ang uint16) error {
	return s.write12(ctx, regMAngH, ang, "max angle")
}

func (s *AS5600) PowerMode(ctx context.Context) (PowerMode, error) {
	v, err := s.readField(ctx, fieldPowerMode, "power mode")
	return PowerMode(v), err
}

// SetPowerMode switches the power mode. When a low power mode is selected the call returns
// after one polling period so that the next read sees a sample taken in the new mode.
func (s *AS5600) SetPowerMode(ctx context.Context, mode PowerMode) error {
	err := s.setField(ctx, fieldPowerMode, byte(mode), mode.Valid(), "power mode")
	if err != nil {
		return err
	}
	if wait, ok := lowPowerPolling[mode]; ok {
		return s.transport.Delay(ctx, wait)
	}
	return nil
}

func (s *AS5600) Hysteresis(ctx context.Context) (Hysteresis, error) {
	v, err := s.readField(ctx, fieldHysteresis, "hysteresis")
	return Hysteresis(v), err
}

func (s *AS5600) SetHysteresis(ctx context.Context, h Hysteresis) error {
	return s.setField(ctx, fieldHysteresis, byte(h), h.Valid(), "hysteresis")
}

func (s *AS5600) OutputStage(ctx context.Context) (OutputStage, error) {
	v, err := s.readField(ctx, fieldOutputStage, "output stage")
	return OutputStage(v), err
}

func (s *AS5600) SetOutputStage(ctx context.Context, stage OutputStage) error {
	return s.setField(ctx, fieldOutputStage, byte(stage), stage.Valid(), "output stage")
}

func (s *AS5600) PWMFrequency(ctx context.Context) (PWMFrequency, error) {
	v, err := s.readField(ctx, fieldPWMFreq, "pwm frequency")
	return PWMFrequency(v), err
}

func (s *AS5600) SetPWMFrequency(ctx context.Context, freq PWMFrequency) error {
	return s.setField(ctx, fieldPWMFreq, byte(freq), freq.Valid(), "pwm frequency")
}

func (s *AS5600) SlowFilter(ctx context.Context) (SlowFilter, error) {
	v, err := s.readField(ctx, fieldSlowFilter, "slow filter")
	return SlowFilter(v), err
}

func (s *AS5600) SetSlowFilter(ctx context.Context, filter SlowFilter) error {
	return s.setField(ctx, fieldSlowFilter, byte(filter), filter.Valid(), "slow filter")
}

func (s *AS5600) FastFilterThreshold(ctx context.Context) (FastFilterThreshold, error) {
	v, err := s.readField(ctx, fieldFastFilter, "fast filter threshold")
	return FastFilterThreshold(v), err
}

func (s *AS5600) SetFastFilterThreshold(ctx context.Context, threshold FastFilterThreshold) error {
	return s.setField(ctx, fieldFastFilter, byte(threshold), threshold.Valid(), "fast filter threshold")
}

func (s *AS5600) WatchDog(ctx context.Context) (bool, error) {
	v, err := s.readField(ctx, fieldWatchDog, "watch-dog")
	return v == 1, err
}

// SetWatchDog toggles the watch-dog, which drops the chip into LPM3 after one minute without
// a position change larger than 4 LSB.
func (s *AS5600) SetWatchDog(ctx context.Context, enable bool) error {
	var v byte
	if enable {
		v = 1
	}
	err := s.writeField(ctx, fieldWatchDog, v, "watch-dog")
	if err != nil {
		return err
	}
	if enable && s.settle > 0 {
		return s.transport.Delay(ctx, s.settle)
	}
	return nil
}

// Burn writes a command to the BURN register. BurnAngle and BurnSetting are irreversible.
// A failed write is not retried and a partially applied burn is neither confirmed nor reverted.
func (s *AS5600) Burn(ctx context.Context, cmd Burn) error {
	if !s.inited {
		return ErrNotInitialized
	}
	if !cmd.Valid() {
		return fmt.Errorf("%w: burn command %#x", ErrInvalidParameter, byte(cmd))
	}
	return s.write(ctx, regBurn, []byte{byte(cmd)}, "burn")
}

// ReadRegister reads len(buf) bytes starting at reg without any decoding.
func (s *AS5600) ReadRegister(ctx context.Context, reg byte, buf []byte) error {
	if !s.inited {
		return ErrNotInitialized
	}
	return s.read(ctx, register(reg), buf, "register")
}

// WriteRegister writes buf starting at reg without any validation.
func (s *AS5600) WriteRegister(ctx context.Context, reg byte, buf []byte) error {
	if !s.inited {
		return ErrNotInitialized
	}
	return s.write(ctx, register(reg), buf, "register")
}

func (s *AS5600) read(ctx context.Context, reg register, buf []byte, name string) error {
	err := s.transport.ReadRegister(ctx, s.address, byte(reg), buf)
	if err != nil {
		s.transport.Debug("as5600: read failed", "register", name, "address", byte(reg), "error", err)
		return fmt.Errorf("%w: could not read %s: %w", ErrBus, name, err)
	}
	return nil
}

func (s *AS5600) write(ctx context.Context, reg register, buf []byte, name string) error {
	err := s.transport.WriteRegister(ctx, s.address, byte(reg), buf)
	if err != nil {
		s.transport.Debug("as5600: write failed", "register", name, "address", byte(reg), "error", err)
		return fmt.Errorf("%w: could not write %s: %w", ErrBus, name, err)
	}
	return nil
}

func (s *AS5600) read8(ctx context.Context, reg register, name string) (byte, error) {
	if !s.inited {
		return 0, ErrNotInitialized
	}
	buf := []byte{0x00}
	err := s.read(ctx, reg, buf, name)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// read12 reads a high/low register pair.
func (s *AS5600) read12(ctx context.Context, high register, name string) (uint16, error) {
	if !s.inited {
		return 0, ErrNotInitialized
	}
	buf := make([]byte, 2)
	err := s.read(ctx, high, buf, name)
	if err != nil {
		return 0, err
	}
	return join12(buf[0], buf[1]), nil
}

// write12 writes a high/low register pair in one transaction, keeping the unused upper
// nibble of the high register.
func (s *AS5600) write12(ctx context.Context, high register, v uint16, name string) error {
	if !s.inited {
		return ErrNotInitialized
	}
	if v > max12 {
		return fmt.Errorf("%w: %s %#x is over 0xFFF", ErrInvalidParameter, name, v)
	}
	prev := []byte{0x00}
	err := s.read(ctx, high, prev, name)
	if err != nil {
		return err
	}
	hi, lo := split12(v)
	return s.write(ctx, high, []byte{prev[0]&0xF0 | hi, lo}, name)
}

func (s *AS5600) readField(ctx context.Context, f field, name string) (byte, error) {
	b, err := s.read8(ctx, f.reg, name)
	if err != nil {
		return 0, err
	}
	return f.extract(b), nil
}

// setField validates v before touching the bus.
func (s *AS5600) setField(ctx context.Context, f field, v byte, valid bool, name string) error {
	if !s.inited {
		return ErrNotInitialized
	}
	if !valid {
		return fmt.Errorf("%w: %s %d", ErrInvalidParameter, name, v)
	}
	return s.writeField(ctx, f, v, name)
}

// writeField does a read-modify-write of the byte holding f.
func (s *AS5600) writeField(ctx context.Context, f field, v byte, name string) error {
	if !s.inited {
		return ErrNotInitialized
	}
	if v > f.max() {
		return fmt.Errorf("%w: %s %d does not fit %d bits", ErrInvalidParameter, name, v, f.width)
	}
	prev, err := s.read8(ctx, f.reg, name)
	if err != nil {
		return err
	}
	return s.write(ctx, f.reg, []byte{f.insert(prev, v)}, name)
}
