package main

import (
	"github.com/mklimuk/rotary/adapter"
	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/urfave/cli/v2"
)

var directionCmd = cli.Command{
	Name:      "direction",
	Usage:     "select the counting direction through the DIR pin wired to an MCP2221 GP pin",
	ArgsUsage: "cw|ccw",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "gpio",
			Value: 0,
			Usage: "GP pin (0-3) the sensor DIR pin is connected to",
		},
	},
	Action: func(c *cli.Context) error {
		if c.String("adapter") != adapterMCP2221 {
			return console.Exit(console.CodeUsage, "direction needs the mcp2221 adapter")
		}
		dir, err := position.ParseDirection(c.Args().First())
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		pin := c.Int("gpio")
		ctx := commandContext(c)
		a := newMCP2221(c)
		params, err := a.GetGPIOParameters(ctx)
		if err != nil {
			return deviceError("adapter communication error", err)
		}
		if !setGPIOOutput(&params, pin) {
			return console.Exit(console.CodeUsage, "invalid GP pin %d", pin)
		}
		err = a.SetGPIOParameters(ctx, params)
		if err != nil {
			return deviceError("adapter communication error", err)
		}
		err = a.SetGPIO(ctx, pin, dir.PinHigh())
		if err != nil {
			return deviceError("adapter communication error", err)
		}
		console.PInfof(console.PictoArrows, "direction set to %s (GP%d)", console.White(dir), pin)
		return nil
	},
}

// setGPIOOutput turns pin into a plain digital output.
func setGPIOOutput(params *adapter.MCP2221GPIOParameters, pin int) bool {
	switch pin {
	case 0:
		params.GPIO0Mode, params.GPIO0Designation = adapter.GPIOModeOut, adapter.GPIOOperation
	case 1:
		params.GPIO1Mode, params.GPIO1Designation = adapter.GPIOModeOut, adapter.GPIOOperation
	case 2:
		params.GPIO2Mode, params.GPIO2Designation = adapter.GPIOModeOut, adapter.GPIOOperation
	case 3:
		params.GPIO3Mode, params.GPIO3Designation = adapter.GPIOModeOut, adapter.GPIOOperation
	default:
		return false
	}
	return true
}
