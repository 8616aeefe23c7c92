package main

import (
	"context"
	"fmt"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/urfave/cli/v2"
)

// angle burns the chip accepts
const maxAngleBurns = 3

var burnCmd = cli.Command{
	Name:      "burn",
	Usage:     "send a command to the BURN register",
	ArgsUsage: "angle|setting|cmd1|cmd2|cmd3",
	Description: "angle permanently stores ZPOS and MPOS (at most 3 times), setting permanently stores MANG " +
		"and CONF (only before any angle burn). cmd1, cmd2 and cmd3 reload the OTP content.\n\n" +
		"The angle burn limit and the angle-burn-first rule are checked against ZMCO. The chip has no readable " +
		"flag for a past setting burn, so a repeated setting burn on a chip with ZMCO 0 is not refused.",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(console.CodeUsage, "expected exactly one burn command")
		}
		cmd, err := position.ParseBurn(c.Args().First())
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		if cmd == position.BurnAngle || cmd == position.BurnSetting {
			err = checkBurn(ctx, s, cmd)
			if err != nil {
				return err
			}
			if !c.Bool("yes") {
				ok, err := console.Confirm(fmt.Sprintf("%s %s burn cannot be undone, continue?", console.PictoFire, cmd))
				if err != nil {
					return console.Exit(console.CodeError, "prompt error: %s", console.Red(err))
				}
				if !ok {
					return console.Exit(console.CodeRejected, "%s burn aborted", console.PictoStop)
				}
			}
		}
		err = s.Burn(ctx, cmd)
		if err != nil {
			return deviceError("burn error", err)
		}
		console.Infof("%s command sent", console.Green(cmd))
		if cmd == position.BurnAngle {
			count, err := s.BurnCount(ctx)
			if err != nil {
				return deviceError("burn count read error", err)
			}
			console.Infof("angle burns used: %s of %d", console.White(count), maxAngleBurns)
		}
		return nil
	},
}

// checkBurn refuses burns the chip would not accept.
func checkBurn(ctx context.Context, s *position.AS5600, cmd position.Burn) error {
	count, err := s.BurnCount(ctx)
	if err != nil {
		return deviceError("burn count read error", err)
	}
	switch {
	case cmd == position.BurnAngle && count >= maxAngleBurns:
		return console.Exit(console.CodeRejected, "all %d angle burns have been used", maxAngleBurns)
	case cmd == position.BurnSetting && count != 0:
		return console.Exit(console.CodeRejected, "setting burn is only possible before any angle burn (burn count %d)", count)
	}
	if cmd == position.BurnAngle {
		st, err := s.Status(ctx)
		if err != nil {
			return deviceError("status read error", err)
		}
		if !st.MagnetDetected() {
			return console.Exit(console.CodeRejected, "%s angle burn requires a detected magnet (status %s)", console.PictoMagnet, st)
		}
	}
	return nil
}
