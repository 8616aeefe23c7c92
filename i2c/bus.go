package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/rotary"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ rotary.I2CBus = &GenericBus{}
var _ rotary.RegisterReader = &GenericBus{}
var _ rotary.RegisterWriter = &GenericBus{}

// GenericBus is a Linux I2C bus driven by periph.io.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus initializes the host drivers and opens dev (e.g. "1" or "/dev/i2c-1"; empty
// picks the first bus).
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// Periph returns an OpenFunc for a periph.io bus. A zero speed keeps the bus default.
func Periph(dev string, speed physic.Frequency) OpenFunc {
	return func(ctx context.Context) (rotary.I2CBus, error) {
		b, err := NewGenericBus(dev)
		if err != nil {
			return nil, err
		}
		if speed > 0 {
			err = b.SetSpeed(speed)
			if err != nil {
				_ = b.Close()
				return nil, err
			}
		}
		return b, nil
	}
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// ReadRegister writes the register pointer and reads back with a repeated start.
func (b *GenericBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), []byte{register}, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x of %x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), append([]byte{register}, buffer...), nil)
	if err != nil {
		return fmt.Errorf("could not write register %#x of %x: %w", register, address, err)
	}
	return nil
}

func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	err := b.bus.SetSpeed(f)
	if err != nil {
		return fmt.Errorf("could not set i2c bus speed to %s: %w", f, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) String() string {
	return b.bus.String()
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
