package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/mklimuk/rotary/position"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		return 1
	}
	return 0
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "rotary"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "AS5600 magnetic rotary position sensor cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and adapter traffic dumps",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   adapterMCP2221,
			Usage:   "bus adapter: mcp2221, periph, embd, nanopi or sim",
		},
		&cli.IntFlag{
			Name:  "index",
			Value: -1,
			Usage: "MCP2221 index when several adapters are connected",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "periph i2c bus name (e.g. 1 or /dev/i2c-1)",
		},
		&cli.IntFlag{
			Name:  "bus",
			Value: 1,
			Usage: "i2c bus number for embd and nanopi",
		},
		&cli.UintFlag{
			Name:  "address",
			Value: position.DefaultAS5600Address,
			Usage: "7-bit sensor address",
		},
		&cli.IntFlag{
			Name:  "speed",
			Usage: "i2c bus speed in kHz (periph only)",
		},
	}
	// exit codes are returned by run
	app.ExitErrHandler = func(c *cli.Context, err error) {}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&angleCmd,
		&statusCmd,
		&infoCmd,
		&convertCmd,
		&configCmd,
		&positionCmd,
		&burnCmd,
		&registerCmd,
		&directionCmd,
		&mcp2221Cmd,
		&usbCmd,
	}
	return app
}
