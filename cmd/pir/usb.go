package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/pir/adapter"
	"github.com/mklimuk/pir/cmd/pir/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "list USB HID devices",
	Subcommands: []*cli.Command{
		{
			Name:  "ls",
			Usage: "list all HID devices",
			Action: func(c *cli.Context) error {
				w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
				_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
				for _, dev := range hid.Enumerate(0, 0) {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
						dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
				}
				_ = w.Flush()
				return nil
			},
		},
		{
			Name:  "detect",
			Usage: "list plugged in I2C bridges",
			Action: func(c *cli.Context) error {
				w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
				_, _ = fmt.Fprintf(w, "INDEX\tVENDOR\tPRODUCT\tDEVICE\tPATH\n")
				for i, dev := range hid.Enumerate(adapter.VendorID, adapter.ProductID) {
					_, _ = fmt.Fprintf(w, "%d\t%#x\t%#x\t%s\t%s\n", i, dev.VendorID, dev.ProductID, "MCP2221", dev.Path)
				}
				_ = w.Flush()
				return nil
			},
		},
	},
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect the MCP2221 bridge",
	Subcommands: []*cli.Command{
		{
			Name:  "status",
			Usage: "print the I2C engine status",
			Action: func(c *cli.Context) error {
				a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
				status, err := a.Status(commandContext(c))
				if err != nil {
					return console.Exit(1, "adapter communication error: %s", console.Red(err))
				}
				return encodeYAML(status)
			},
		},
		{
			Name:  "release",
			Usage: "cancel the current I2C transfer",
			Action: func(c *cli.Context) error {
				a := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
				status, err := a.ReleaseBus(commandContext(c))
				if err != nil {
					return console.Exit(1, "adapter communication error: %s", console.Red(err))
				}
				return encodeYAML(status)
			},
		},
	},
}

func encodeYAML(v interface{}) error {
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(v); err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}
