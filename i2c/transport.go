package i2c

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mklimuk/rotary"
)

var _ rotary.Transport = &Transport{}

var ErrTransportClosed = fmt.Errorf("i2c: transport is not initialized")

// OpenFunc opens the underlying bus. It is called on every Transport.Init.
type OpenFunc func(ctx context.Context) (rotary.I2CBus, error)

// Static returns an OpenFunc handing out an already opened bus.
func Static(bus rotary.I2CBus) OpenFunc {
	return func(ctx context.Context) (rotary.I2CBus, error) {
		return bus, nil
	}
}

// Transport adapts a raw addressable bus to rotary.Transport. Register reads use the bus's own
// RegisterReader when it has one (usually a repeated start transaction), otherwise the register
// pointer is written first and the data read in a second transaction.
type Transport struct {
	open   OpenFunc
	bus    rotary.I2CBus
	logger *slog.Logger
}

type TransportOption func(*Transport)

func WithLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

func NewTransport(open OpenFunc, opts ...TransportOption) *Transport {
	t := &Transport{
		open:   open,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) Init(ctx context.Context) error {
	if t.bus != nil {
		return nil
	}
	if t.open == nil {
		return fmt.Errorf("i2c: no bus to open")
	}
	bus, err := t.open(ctx)
	if err != nil {
		return fmt.Errorf("i2c: could not open bus: %w", err)
	}
	t.bus = bus
	return nil
}

// Deinit closes the bus if it is an io.Closer.
func (t *Transport) Deinit(ctx context.Context) error {
	if t.bus == nil {
		return nil
	}
	bus := t.bus
	t.bus = nil
	if c, ok := bus.(io.Closer); ok {
		err := c.Close()
		if err != nil {
			return fmt.Errorf("i2c: could not close bus: %w", err)
		}
	}
	return nil
}

func (t *Transport) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	if t.bus == nil {
		return ErrTransportClosed
	}
	if rr, ok := t.bus.(rotary.RegisterReader); ok {
		return rr.ReadRegister(ctx, address, register, buffer)
	}
	err := t.bus.WriteToAddr(ctx, address, []byte{register})
	if err != nil {
		return fmt.Errorf("i2c: could not set register pointer %#x: %w", register, err)
	}
	return t.bus.ReadFromAddr(ctx, address, buffer)
}

func (t *Transport) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	if t.bus == nil {
		return ErrTransportClosed
	}
	if rw, ok := t.bus.(rotary.RegisterWriter); ok {
		return rw.WriteRegister(ctx, address, register, buffer)
	}
	data := make([]byte, 0, len(buffer)+1)
	data = append(data, register)
	data = append(data, buffer...)
	return t.bus.WriteToAddr(ctx, address, data)
}

func (t *Transport) Delay(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *Transport) Debug(msg string, args ...any) {
	t.logger.Debug(msg, args...)
}

// Bus returns the opened bus or nil.
func (t *Transport) Bus() rotary.I2CBus {
	return t.bus
}
