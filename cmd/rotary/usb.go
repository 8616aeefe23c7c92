package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/mklimuk/rotary/adapter"
	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/urfave/cli/v2"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list connected HID devices",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)
		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")

		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		_ = w.Flush()
		return nil
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list connected MCP2221 adapters with the index used by --index",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(adapter.VendorID, adapter.ProductID)
		if len(devices) == 0 {
			return console.Exit(console.CodeDevice, "%s", console.Red(adapter.ErrDeviceNotFound))
		}
		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "INDEX\tPATH\tSERIAL\tDEVICE\n")
		for i, dev := range devices {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\tMCP2221\n", i, dev.Path, dev.Serial)
		}
		_ = w.Flush()
		return nil
	},
}
