package main

import (
	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/urfave/cli/v2"
)

var positionCmd = cli.Command{
	Name:  "position",
	Usage: "read and program the start, stop and max angle positions",
	Subcommands: cli.Commands{
		&positionGetCmd,
		&positionSetCmd,
	},
}

type angleValue struct {
	Raw     uint16  `yaml:"raw"`
	Degrees float64 `yaml:"degrees"`
}

func newAngleValue(raw uint16) angleValue {
	return angleValue{Raw: raw, Degrees: position.RawToDegrees(raw)}
}

type positionReport struct {
	Start    angleValue `yaml:"start"`
	Stop     angleValue `yaml:"stop"`
	MaxAngle angleValue `yaml:"max_angle"`
}

var positionGetCmd = cli.Command{
	Name: "get",
	Action: func(c *cli.Context) error {
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		start, err := s.StartPosition(ctx)
		if err != nil {
			return deviceError("start position read error", err)
		}
		stop, err := s.StopPosition(ctx)
		if err != nil {
			return deviceError("stop position read error", err)
		}
		maxAngle, err := s.MaxAngle(ctx)
		if err != nil {
			return deviceError("max angle read error", err)
		}
		return encode(positionReport{
			Start:    newAngleValue(start),
			Stop:     newAngleValue(stop),
			MaxAngle: newAngleValue(maxAngle),
		})
	},
}

var positionSetCmd = cli.Command{
	Name:  "set",
	Usage: "write positions in degrees within [0, 360) (not burned)",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "start", Usage: "start position (ZPOS) in degrees"},
		&cli.Float64Flag{Name: "stop", Usage: "stop position (MPOS) in degrees"},
		&cli.Float64Flag{Name: "max", Usage: "maximum angle (MANG) in degrees"},
	},
	Action: func(c *cli.Context) error {
		p := position.Positions{
			Start:    floatFlag(c, "start"),
			Stop:     floatFlag(c, "stop"),
			MaxAngle: floatFlag(c, "max"),
		}
		if p.Empty() {
			return console.Exit(console.CodeUsage, "one of --start, --stop or --max is required")
		}
		err := p.Validate()
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		err = s.ApplyPositions(ctx, p)
		if err != nil {
			return deviceError("could not set positions", err)
		}
		printPositions(p)
		return nil
	},
}

// floatFlag returns nil when the flag was not given.
func floatFlag(c *cli.Context, name string) *float64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Float64(name)
	return &v
}

func printPositions(p position.Positions) {
	if p.Start != nil {
		console.PInfof(console.PictoPin, "start position set to %s", console.White(position.DegreesToRaw(*p.Start)))
	}
	if p.Stop != nil {
		console.PInfof(console.PictoPin, "stop position set to %s", console.White(position.DegreesToRaw(*p.Stop)))
	}
	if p.MaxAngle != nil {
		console.PInfof(console.PictoPin, "max angle set to %s", console.White(position.DegreesToRaw(*p.MaxAngle)))
	}
}
