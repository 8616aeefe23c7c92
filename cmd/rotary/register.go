package main

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/urfave/cli/v2"
)

var registerCmd = cli.Command{
	Name:    "register",
	Aliases: []string{"reg"},
	Usage:   "raw register access",
	Subcommands: cli.Commands{
		&registerReadCmd,
		&registerWriteCmd,
	},
}

var registerReadCmd = cli.Command{
	Name:      "read",
	ArgsUsage: "<register>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "length", Aliases: []string{"n"}, Value: 1},
	},
	Action: func(c *cli.Context) error {
		reg, err := parseRegister(c.Args().First())
		if err != nil {
			return console.Exit(console.CodeUsage, "invalid register: %s", console.Red(err))
		}
		n := c.Int("length")
		if n < 1 || n > 256-int(reg) {
			return console.Exit(console.CodeUsage, "invalid length %d", n)
		}
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		buf := make([]byte, n)
		err = s.ReadRegister(ctx, reg, buf)
		if err != nil {
			return deviceError("register read error", err)
		}
		console.Printf("%s", hex.Dump(buf))
		return nil
	},
}

var registerWriteCmd = cli.Command{
	Name:      "write",
	ArgsUsage: "<register> <hex data>",
	Usage:     "write raw bytes, e.g. register write 0x08 23",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(console.CodeUsage, "expected a register and data")
		}
		reg, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Exit(console.CodeUsage, "invalid register: %s", console.Red(err))
		}
		data, err := hex.DecodeString(strings.TrimPrefix(c.Args().Get(1), "0x"))
		if err != nil || len(data) == 0 {
			return console.Exit(console.CodeUsage, "invalid data %q", c.Args().Get(1))
		}
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		err = s.WriteRegister(ctx, reg, data)
		if err != nil {
			return deviceError("register write error", err)
		}
		console.Infof("%d bytes written at %#02x", len(data), reg)
		return nil
	},
}

// parseRegister accepts decimal, 0x hex and 0b binary register numbers.
func parseRegister(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
