package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "read and change the CONF register",
	Subcommands: cli.Commands{
		&configGetCmd,
		&configSetCmd,
		&configApplyCmd,
	},
}

var configGetCmd = cli.Command{
	Name: "get",
	Action: func(c *cli.Context) error {
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		conf, err := s.ReadConfig(ctx)
		if err != nil {
			return deviceError("config read error", err)
		}
		return encode(conf)
	},
}

// change is a parsed config flag waiting to be written.
type change func(ctx context.Context, s *position.AS5600) error

// setting binds a config flag to its parser. Parsing never touches the bus.
type setting struct {
	flag  string
	usage string
	parse func(value string) (change, error)
}

var settings = []setting{
	{"power-mode", "nom, lpm1, lpm2 or lpm3", func(value string) (change, error) {
		v, err := position.ParsePowerMode(value)
		return func(ctx context.Context, s *position.AS5600) error { return s.SetPowerMode(ctx, v) }, err
	}},
	{"hysteresis", "off, 1lsb, 2lsb or 3lsb", func(value string) (change, error) {
		v, err := position.ParseHysteresis(value)
		return func(ctx context.Context, s *position.AS5600) error { return s.SetHysteresis(ctx, v) }, err
	}},
	{"output-stage", "analog-full, analog-reduced or pwm", func(value string) (change, error) {
		v, err := position.ParseOutputStage(value)
		return func(ctx context.Context, s *position.AS5600) error { return s.SetOutputStage(ctx, v) }, err
	}},
	{"pwm-frequency", "115hz, 230hz, 460hz or 920hz", func(value string) (change, error) {
		v, err := position.ParsePWMFrequency(value)
		return func(ctx context.Context, s *position.AS5600) error { return s.SetPWMFrequency(ctx, v) }, err
	}},
	{"slow-filter", "16x, 8x, 4x or 2x", func(value string) (change, error) {
		v, err := position.ParseSlowFilter(value)
		return func(ctx context.Context, s *position.AS5600) error { return s.SetSlowFilter(ctx, v) }, err
	}},
	{"fast-filter", "slow-only, 6lsb, 7lsb, 9lsb, 18lsb, 21lsb, 24lsb or 10lsb", func(value string) (change, error) {
		v, err := position.ParseFastFilterThreshold(value)
		return func(ctx context.Context, s *position.AS5600) error { return s.SetFastFilterThreshold(ctx, v) }, err
	}},
}

// parseSettings turns the given flags into changes, failing before any bus traffic.
func parseSettings(c *cli.Context) ([]change, error) {
	var changes []change
	for _, st := range settings {
		if !c.IsSet(st.flag) {
			continue
		}
		ch, err := st.parse(c.String(st.flag))
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", st.flag, err)
		}
		changes = append(changes, ch)
	}
	if c.IsSet("watchdog") {
		enable := c.Bool("watchdog")
		changes = append(changes, func(ctx context.Context, s *position.AS5600) error { return s.SetWatchDog(ctx, enable) })
	}
	return changes, nil
}

func settingFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(settings)+1)
	for _, s := range settings {
		flags = append(flags, &cli.StringFlag{Name: s.flag, Usage: s.usage})
	}
	return append(flags, &cli.BoolFlag{Name: "watchdog", Usage: "enable or disable the watch-dog (--watchdog=false)"})
}

var configSetCmd = cli.Command{
	Name:  "set",
	Usage: "change single CONF fields, leaving the others untouched",
	Flags: settingFlags(),
	Action: func(c *cli.Context) error {
		changes, err := parseSettings(c)
		if err != nil {
			return console.Exit(console.CodeUsage, "%s", console.Red(err))
		}
		if len(changes) == 0 {
			return console.Exit(console.CodeUsage, "nothing to set")
		}
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		for _, ch := range changes {
			err = ch(ctx, s)
			if err != nil {
				return deviceError("could not set config", err)
			}
		}
		conf, err := s.ReadConfig(ctx)
		if err != nil {
			return deviceError("config read error", err)
		}
		return encode(conf)
	},
}

var configApplyCmd = cli.Command{
	Name:  "apply",
	Usage: "write a whole configuration profile, optionally with positions",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "YAML profile as printed by config get, plus an optional positions block in degrees",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		conf, err := loadProfile(c.String("file"))
		if err != nil {
			return console.Exit(console.CodeUsage, "invalid profile: %s", console.Red(err))
		}
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		err = s.ApplyConfig(ctx, conf.Config)
		if err != nil {
			return deviceError("config write error", err)
		}
		if conf.Positions != nil {
			err = s.ApplyPositions(ctx, *conf.Positions)
			if err != nil {
				return deviceError("positions write error", err)
			}
			printPositions(*conf.Positions)
		}
		console.Infof("profile %s applied", console.White(c.String("file")))
		return nil
	},
}

// profile is a full CONF snapshot with optional positions.
type profile struct {
	position.Config `yaml:",inline"`
	Positions       *position.Positions `yaml:"positions,omitempty"`
}

func loadProfile(path string) (profile, error) {
	var conf profile
	f, err := os.Open(path)
	if err != nil {
		return conf, err
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	err = dec.Decode(&conf)
	if err != nil {
		return conf, fmt.Errorf("could not decode %s: %w", path, err)
	}
	err = conf.Validate()
	if err != nil {
		return conf, err
	}
	if conf.Positions != nil {
		return conf, conf.Positions.Validate()
	}
	return conf, nil
}
