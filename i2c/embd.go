package i2c

import (
	"context"
	"fmt"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	"github.com/mklimuk/rotary"
)

var _ rotary.I2CBus = &EmbdBus{}
var _ rotary.RegisterReader = &EmbdBus{}
var _ rotary.RegisterWriter = &EmbdBus{}

// EmbdBus is an I2C bus of a board supported by embd (Raspberry Pi, BeagleBone).
type EmbdBus struct {
	bus embd.I2CBus
}

func NewEmbdBus(bus embd.I2CBus) *EmbdBus {
	return &EmbdBus{bus: bus}
}

// Embd returns an OpenFunc for bus number l of the detected host.
func Embd(l byte) OpenFunc {
	return func(ctx context.Context) (rotary.I2CBus, error) {
		// NewI2CBus panics when the host is not supported
		err := embd.InitI2C()
		if err != nil {
			return nil, fmt.Errorf("could not init embd i2c: %w", err)
		}
		return NewEmbdBus(embd.NewI2CBus(l)), nil
	}
}

func (b *EmbdBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	data, err := b.bus.ReadBytes(address, len(buffer))
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	copy(buffer, data)
	return nil
}

func (b *EmbdBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.WriteBytes(address, buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *EmbdBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.bus.ReadFromReg(address, register, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x of %x: %w", register, address, err)
	}
	return nil
}

func (b *EmbdBus) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	err := b.bus.WriteToReg(address, register, buffer)
	if err != nil {
		return fmt.Errorf("could not write register %#x of %x: %w", register, address, err)
	}
	return nil
}

func (b *EmbdBus) Release(ctx context.Context) error {
	return nil
}

func (b *EmbdBus) Close() error {
	return b.bus.Close()
}
