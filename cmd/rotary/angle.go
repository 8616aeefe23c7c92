package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var angleCmd = cli.Command{
	Name:  "angle",
	Usage: "read the magnet angle",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "keep reading until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: 200 * time.Millisecond,
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "stop watching after count reads (0 means no limit)",
		},
		&cli.BoolFlag{
			Name:  "scaled",
			Usage: "also read the angle scaled to the programmed range",
		},
	},
	Action: func(c *cli.Context) error {
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		if !c.Bool("watch") {
			return printAngle(ctx, s, c.Bool("scaled"))
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for i := 0; c.Int("count") == 0 || i < c.Int("count"); i++ {
			err = printAngle(ctx, s, c.Bool("scaled"))
			if err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		return nil
	},
}

func printAngle(ctx context.Context, s *position.AS5600, scaled bool) error {
	raw, deg, err := s.Read(ctx)
	if err != nil {
		return deviceError("angle read error", err)
	}
	if !scaled {
		console.PInfof(console.PictoCompass, "%s (raw %d)", console.White(fmt.Sprintf("%7.2f°", deg)), raw)
		return nil
	}
	angle, err := s.Angle(ctx)
	if err != nil {
		return deviceError("scaled angle read error", err)
	}
	console.PInfof(console.PictoCompass, "%s (raw %d, scaled %d)", console.White(fmt.Sprintf("%7.2f°", deg)), raw, angle)
	return nil
}

type statusReport struct {
	Status          string `yaml:"status"`
	MagnetDetected  bool   `yaml:"magnet_detected"`
	MagnetTooWeak   bool   `yaml:"magnet_too_weak"`
	MagnetTooStrong bool   `yaml:"magnet_too_strong"`
	AGC             byte   `yaml:"agc"`
	Magnitude       uint16 `yaml:"magnitude"`
	BurnCount       byte   `yaml:"burn_count"`
}

func readStatus(ctx context.Context, s *position.AS5600) (statusReport, error) {
	var r statusReport
	st, err := s.Status(ctx)
	if err != nil {
		return r, err
	}
	r.Status = st.String()
	r.MagnetDetected = st.MagnetDetected()
	r.MagnetTooWeak = st.MagnetTooWeak()
	r.MagnetTooStrong = st.MagnetTooStrong()
	r.AGC, err = s.AGC(ctx)
	if err != nil {
		return r, err
	}
	r.Magnitude, err = s.Magnitude(ctx)
	if err != nil {
		return r, err
	}
	r.BurnCount, err = s.BurnCount(ctx)
	return r, err
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "show magnet status, AGC, magnitude and burn count",
	Action: func(c *cli.Context) error {
		ctx, s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		report, err := readStatus(ctx, s)
		if err != nil {
			return deviceError("status read error", err)
		}
		if !report.MagnetDetected {
			console.Warnf("%s no magnet detected", console.PictoMagnet)
		}
		return encode(report)
	},
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "show chip and driver information",
	Action: func(c *cli.Context) error {
		return encode(position.AS5600Info())
	},
}

var convertCmd = cli.Command{
	Name:  "convert",
	Usage: "convert between raw register values and degrees",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "raw", Usage: "12-bit register value"},
		&cli.Float64Flag{Name: "deg", Usage: "angle in degrees"},
	},
	Action: func(c *cli.Context) error {
		switch {
		case c.IsSet("raw") && c.IsSet("deg"):
			return console.Exit(console.CodeUsage, "use either --raw or --deg")
		case c.IsSet("raw"):
			raw := c.Uint("raw")
			if raw > 0xFFF {
				return console.Exit(console.CodeUsage, "raw value %s is over 0xFFF", console.Red(raw))
			}
			console.Printf("%.3f\n", position.RawToDegrees(uint16(raw)))
		case c.IsSet("deg"):
			console.Printf("%d\n", position.DegreesToRaw(c.Float64("deg")))
		default:
			return console.Exit(console.CodeUsage, "one of --raw or --deg is required")
		}
		return nil
	},
}

func encode(v any) error {
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(console.CodeError, "encoding error: %s", console.Red(err))
	}
	return nil
}
