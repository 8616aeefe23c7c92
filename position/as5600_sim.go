package position

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/rotary"
)

var _ rotary.Transport = &SimulatedAS5600{}

var (
	ErrSimulatorClosed = fmt.Errorf("simulator: transport not initialized")
	ErrSimulatorNoAck  = fmt.Errorf("simulator: no device at address")
)

// RawAngleBehaviorFunc returns the raw angle of the simulated magnet.
type RawAngleBehaviorFunc func(ctx context.Context) uint16

// SimulatedWrite is a register write observed by the simulator.
type SimulatedWrite struct {
	Register byte
	Data     []byte
}

// SimulatedAS5600 is an in-memory AS5600 behind a rotary.Transport. It requires no hardware
// and is meant for tests and dry runs of the CLI.
//
// The simulator keeps the full register file, computes ANGLE from RAW ANGLE using ZPOS, MPOS and
// MANG, ignores writes to read-only registers, and executes burn commands the way the chip does:
// an angle burn is accepted while ZMCO is below 3, a setting burn only while ZMCO is 0.
// Delays are recorded and never slept.
type SimulatedAS5600 struct {
	address  byte
	regs     [256]byte
	rawAngle RawAngleBehaviorFunc
	inited   bool
	writes   []SimulatedWrite
	delays   []time.Duration
	settings bool
	logger   *slog.Logger
}

type SimulatorOption func(*SimulatedAS5600)

func WithSimulatedAddress(address byte) SimulatorOption {
	return func(s *SimulatedAS5600) {
		s.address = address
	}
}

func WithRawAngleBehavior(fn RawAngleBehaviorFunc) SimulatorOption {
	return func(s *SimulatedAS5600) {
		s.rawAngle = fn
	}
}

// WithMagnet sets the values of the AGC, MAGNITUDE and STATUS registers.
func WithMagnet(agc byte, magnitude uint16, status Status) SimulatorOption {
	return func(s *SimulatedAS5600) {
		s.regs[regAGC] = agc
		s.regs[regMagnitudeH], s.regs[regMagnitudeL] = split12(magnitude)
		s.regs[regStatus] = byte(status)
	}
}

func WithSimulatorLogger(logger *slog.Logger) SimulatorOption {
	return func(s *SimulatedAS5600) {
		s.logger = logger
	}
}

// NewSimulatedAS5600 returns a simulator with a well placed magnet at raw angle 0.
func NewSimulatedAS5600(opts ...SimulatorOption) *SimulatedAS5600 {
	s := &SimulatedAS5600{
		address:  DefaultAS5600Address,
		rawAngle: func(ctx context.Context) uint16 { return 0 },
		logger:   slog.Default(),
	}
	WithMagnet(128, 2048, StatusMagnetDetected)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SimulatedAS5600) Init(ctx context.Context) error {
	s.inited = true
	return nil
}

func (s *SimulatedAS5600) Deinit(ctx context.Context) error {
	s.inited = false
	return nil
}

func (s *SimulatedAS5600) ReadRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	if err := s.check(address); err != nil {
		return err
	}
	raw := s.rawAngle(ctx) & max12
	s.regs[regRawAngleH], s.regs[regRawAngleL] = split12(raw)
	s.regs[regAngleH], s.regs[regAngleL] = split12(s.scale(raw))
	for i := range buffer {
		buffer[i] = s.regs[reg+byte(i)]
	}
	return nil
}

func (s *SimulatedAS5600) WriteRegister(ctx context.Context, address, reg byte, buffer []byte) error {
	if err := s.check(address); err != nil {
		return err
	}
	s.writes = append(s.writes, SimulatedWrite{Register: reg, Data: append([]byte(nil), buffer...)})
	for i, b := range buffer {
		r := register(reg + byte(i))
		switch {
		case r == regBurn:
			s.burn(Burn(b))
		case r >= regZPosH && r <= regConfL:
			s.regs[r] = b
		default:
			s.logger.Debug("simulator: write to read-only register ignored", "register", byte(r))
		}
	}
	return nil
}

func (s *SimulatedAS5600) Delay(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *SimulatedAS5600) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Writes returns every register write seen so far.
func (s *SimulatedAS5600) Writes() []SimulatedWrite {
	return s.writes
}

// Delays returns every delay requested so far.
func (s *SimulatedAS5600) Delays() []time.Duration {
	return s.delays
}

// Register returns the current content of reg.
func (s *SimulatedAS5600) Register(reg byte) byte {
	return s.regs[reg]
}

// SetRegister forces the content of reg, including read-only ones.
func (s *SimulatedAS5600) SetRegister(reg, value byte) {
	s.regs[reg] = value
}

// SettingsBurned reports whether a setting burn has been accepted.
func (s *SimulatedAS5600) SettingsBurned() bool {
	return s.settings
}

func (s *SimulatedAS5600) check(address byte) error {
	if !s.inited {
		return ErrSimulatorClosed
	}
	if address != s.address {
		return fmt.Errorf("%w %#x", ErrSimulatorNoAck, address)
	}
	return nil
}

func (s *SimulatedAS5600) burn(cmd Burn) {
	count := fieldBurnCount.extract(s.regs[regZMCO])
	switch cmd {
	case BurnAngle:
		if count >= 3 {
			s.logger.Debug("simulator: angle burn refused, ZMCO exhausted")
			return
		}
		s.regs[regZMCO] = fieldBurnCount.insert(s.regs[regZMCO], count+1)
	case BurnSetting:
		if count != 0 || s.settings {
			s.logger.Debug("simulator: setting burn refused", "zmco", count)
			return
		}
		s.settings = true
	}
}

// scale maps the raw angle into the programmed output range.
func (s *SimulatedAS5600) scale(raw uint16) uint16 {
	zpos := join12(s.regs[regZPosH], s.regs[regZPosL])
	mpos := join12(s.regs[regMPosH], s.regs[regMPosL])
	mang := join12(s.regs[regMAngH], s.regs[regMAngL])
	span := uint32(Resolution)
	switch {
	case mpos != 0:
		span = uint32(mpos+Resolution-zpos) % Resolution
	case mang != 0:
		span = uint32(mang)
	}
	if span == 0 {
		span = Resolution
	}
	offset := uint32(raw+Resolution-zpos) % Resolution
	if offset >= span {
		return max12
	}
	angle := offset * Resolution / span
	if angle > max12 {
		return max12
	}
	return uint16(angle)
}
