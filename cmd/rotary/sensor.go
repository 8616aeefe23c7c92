package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/rotary"
	"github.com/mklimuk/rotary/adapter"
	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/i2c"
	"github.com/mklimuk/rotary/position"
	"github.com/mklimuk/rotary/snsctx"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterPeriph  = "periph"
	adapterEmbd    = "embd"
	adapterNanoPi  = "nanopi"
	adapterSim     = "sim"
)

// simulated magnet turning at one revolution every 4.096s
var simStart = time.Now()

func newMCP2221(c *cli.Context) *adapter.MCP2221 {
	if c.Int("index") >= 0 {
		return adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
	}
	return adapter.NewMCP2221()
}

// openTransport is replaced in tests to share one simulator between command runs.
var openTransport = newTransport

func newTransport(c *cli.Context) (rotary.Transport, error) {
	switch name := c.String("adapter"); name {
	case adapterMCP2221:
		return i2c.NewTransport(i2c.Static(newMCP2221(c))), nil
	case adapterPeriph:
		speed := physic.Frequency(c.Int("speed")) * physic.KiloHertz
		return i2c.NewTransport(i2c.Periph(c.String("device"), speed)), nil
	case adapterEmbd:
		return i2c.NewTransport(i2c.Embd(byte(c.Int("bus")))), nil
	case adapterNanoPi:
		return i2c.NewTransport(i2c.NanoPi(c.Int("bus"))), nil
	case adapterSim:
		return position.NewSimulatedAS5600(
			position.WithSimulatedAddress(byte(c.Uint("address"))),
			position.WithRawAngleBehavior(func(ctx context.Context) uint16 {
				return uint16(time.Since(simStart).Milliseconds() % position.Resolution)
			}),
		), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
}

// commandContext carries the verbose flag and the command logger down to the adapters.
func commandContext(c *cli.Context) context.Context {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	if c.Command == nil {
		return ctx
	}
	return snsctx.WithLogger(ctx, slog.Default().With("command", c.Command.Name))
}

// openSensor returns an initialized sensor and the function releasing it.
func openSensor(c *cli.Context) (context.Context, *position.AS5600, func(), error) {
	ctx := commandContext(c)
	tr, err := openTransport(c)
	if err != nil {
		return nil, nil, nil, console.Exit(console.CodeUsage, "%s", console.Red(err))
	}
	s := position.NewAS5600(tr, position.WithAddress(byte(c.Uint("address"))))
	err = s.Init(ctx)
	if err != nil {
		return nil, nil, nil, console.Exit(console.CodeDevice, "sensor initialization error: %s", console.Red(err))
	}
	closer := func() {
		err := s.Deinit(ctx)
		if err != nil {
			slog.Warn("could not release sensor", "error", err)
		}
	}
	return ctx, s, closer, nil
}

// deviceError maps driver errors to exit codes.
func deviceError(msg string, err error) cli.ExitCoder {
	code := console.CodeDevice
	if errors.Is(err, position.ErrInvalidParameter) {
		code = console.CodeUsage
	}
	return console.Exit(code, "%s: %s", msg, console.Red(err))
}
