package main

import (
	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/urfave/cli/v2"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 adapter maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		status, err := newMCP2221(c).Status(commandContext(c))
		if err != nil {
			return console.Exit(console.CodeDevice, "adapter communication error: %s", console.Red(err))
		}
		return encode(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current I2C transfer, e.g. after the engine got stuck busy",
	Action: func(c *cli.Context) error {
		status, err := newMCP2221(c).ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(console.CodeDevice, "adapter communication error: %s", console.Red(err))
		}
		return encode(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "show GP pin parameters and values",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		a := newMCP2221(c)
		params, err := a.GetGPIOParameters(ctx)
		if err != nil {
			return console.Exit(console.CodeDevice, "adapter communication error: %s", console.Red(err))
		}
		values, err := a.ReadGPIO(ctx)
		if err != nil {
			return console.Exit(console.CodeDevice, "adapter communication error: %s", console.Red(err))
		}
		return encode(map[string]any{
			"parameters": params,
			"values":     values,
		})
	},
}
