package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pir/cmd/pir/console"
)

var addressCmd = cli.Command{
	Name:  "address",
	Usage: "reprogram the sensor I2C address",
	Subcommands: []*cli.Command{
		{
			Name:      "set",
			Usage:     "write a new address (hex, 0x08-0x77)",
			ArgsUsage: "[new address]",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
			},
			Action: func(c *cli.Context) error {
				raw := c.Args().First()
				if raw == "" {
					var err error
					raw, err = console.Ask("New address (hex, e.g. 5B):")
					if err != nil {
						return console.Exit(1, "could not read address: %s", err)
					}
				}
				address, err := parseAddress(raw)
				if err != nil {
					return console.Exit(1, "%s", err)
				}
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				if !c.Bool("yes") {
					ok, err := console.Confirm("Move the sensor from " + hexByte(s.Address()) + " to " + hexByte(address) + "?")
					if err != nil {
						return console.Exit(1, "could not read confirmation: %s", err)
					}
					if !ok {
						console.PInfof(console.PictoStop, "address left unchanged")
						return nil
					}
				}
				ctx := commandContext(c)
				moved, err := s.ChangeAddress(ctx, address)
				if err != nil {
					return console.Exit(1, "error changing address: %s", console.Red(err))
				}
				// the firmware needs a moment to re-attach on the new address
				time.Sleep(20 * time.Millisecond)
				if !moved.Begin(ctx) {
					return console.Exit(1, "the Qwiic PIR did not acknowledge on %s: %s", hexByte(address), console.Red(moved.Detect(ctx)))
				}
				console.PInfof(console.PictoPin, "Qwiic PIR acknowledged on new address %s", console.White(hexByte(address)))
				return nil
			},
		},
	},
}
