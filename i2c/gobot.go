package i2c

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/rotary"
	gobotio "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
)

var _ rotary.I2CBus = &GobotBus{}
var _ rotary.RegisterReader = &GobotBus{}
var _ rotary.RegisterWriter = &GobotBus{}

// GobotBus talks to devices through a gobot i2c.Connector. Connections are opened on first
// use of an address and kept until Close.
type GobotBus struct {
	connector gobotio.Connector
	bus       int
	conns     map[byte]gobotio.Connection
	finalize  func() error
}

func NewGobotBus(connector gobotio.Connector, bus int) *GobotBus {
	return &GobotBus{
		connector: connector,
		bus:       bus,
		conns:     make(map[byte]gobotio.Connection),
	}
}

// NanoPi returns an OpenFunc connecting a FriendlyELEC NanoPi NEO adaptor.
func NanoPi(bus int) OpenFunc {
	return func(ctx context.Context) (rotary.I2CBus, error) {
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		b := NewGobotBus(npi, bus)
		b.finalize = npi.I2cBusAdaptor.Finalize
		return b, nil
	}
}

func (b *GobotBus) connection(address byte) (gobotio.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not get i2c connection to %x on bus %d: %w", address, b.bus, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from i2c bus %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	err = conn.WriteBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GobotBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	err = conn.ReadBlockData(register, buffer)
	if err != nil {
		return fmt.Errorf("could not read register %#x of %x: %w", register, address, err)
	}
	return nil
}

func (b *GobotBus) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	err = conn.WriteBlockData(register, buffer)
	if err != nil {
		return fmt.Errorf("could not write register %#x of %x: %w", register, address, err)
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close closes every cached connection and finalizes the adaptor when the bus owns it.
func (b *GobotBus) Close() error {
	var errs []error
	for addr, conn := range b.conns {
		err := conn.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("could not close connection to %x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	if b.finalize != nil {
		err := b.finalize()
		if err != nil {
			errs = append(errs, fmt.Errorf("adaptor finalize error: %w", err))
		}
	}
	return errors.Join(errs...)
}
