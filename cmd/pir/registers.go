package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pir/cmd/pir/console"
)

var rawCmd = cli.Command{
	Name:  "raw",
	Usage: "read the live PIR output",
	Action: func(c *cli.Context) error {
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		raw, err := s.RawReading(commandContext(c))
		if err != nil {
			return console.Exit(1, "error reading raw state: %s", console.Red(err))
		}
		console.Printf("raw reading: %s\n", console.Flag(raw))
		return nil
	},
}

var availableCmd = cli.Command{
	Name:  "available",
	Usage: "check the latched event available flag",
	Action: func(c *cli.Context) error {
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		available, err := s.EventAvailable(commandContext(c))
		if err != nil {
			return console.Exit(1, "error reading event status: %s", console.Red(err))
		}
		console.Printf("event available: %s\n", console.Flag(available))
		return nil
	},
}

var clearCmd = cli.Command{
	Name:  "clear",
	Usage: "clear latched event bits",
	Action: func(c *cli.Context) error {
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		err = s.ClearEventBits(commandContext(c))
		if err != nil {
			return console.Exit(1, "error clearing event bits: %s", console.Red(err))
		}
		console.PInfof(console.PictoBroom, "event bits cleared")
		return nil
	},
}

var debounceCmd = cli.Command{
	Name:  "debounce",
	Usage: "read or write the event debounce time",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "print the debounce time in milliseconds",
			Action: func(c *cli.Context) error {
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				ms, err := s.DebounceTime(commandContext(c))
				if err != nil {
					return console.Exit(1, "error reading debounce time: %s", console.Red(err))
				}
				console.PInfof(console.PictoClock, "%s ms", console.White(ms))
				return nil
			},
		},
		{
			Name:      "set",
			Usage:     "write the debounce time in milliseconds (0-65535)",
			ArgsUsage: "<ms>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return console.Exit(1, "expected 1 argument, got %d", c.NArg())
				}
				ms, err := strconv.ParseUint(c.Args().First(), 10, 16)
				if err != nil {
					return console.Exit(1, "invalid debounce time: %v", err)
				}
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				err = s.SetDebounceTime(commandContext(c), uint16(ms))
				if err != nil {
					return console.Exit(1, "error writing debounce time: %s", console.Red(err))
				}
				console.PInfof(console.PictoClock, "debounce time set to %s ms", console.White(ms))
				return nil
			},
		},
	},
}

var interruptCmd = cli.Command{
	Name:  "interrupt",
	Usage: "configure the interrupt line",
	Subcommands: []*cli.Command{
		{
			Name:  "enable",
			Usage: "assert the interrupt line on events",
			Action: func(c *cli.Context) error {
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				if err := s.EnableInterrupt(commandContext(c)); err != nil {
					return console.Exit(1, "error enabling interrupt: %s", console.Red(err))
				}
				console.PInfof(console.PictoBell, "interrupt %s", console.Yellow("enabled"))
				return nil
			},
		},
		{
			Name:  "disable",
			Usage: "stop asserting the interrupt line",
			Action: func(c *cli.Context) error {
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				if err := s.DisableInterrupt(commandContext(c)); err != nil {
					return console.Exit(1, "error disabling interrupt: %s", console.Red(err))
				}
				console.PInfof(console.PictoBell, "interrupt %s", console.Green("disabled"))
				return nil
			},
		},
		{
			Name:  "reset",
			Usage: "enable the interrupt and clear latched events",
			Action: func(c *cli.Context) error {
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				if err := s.ResetInterruptConfig(commandContext(c)); err != nil {
					return console.Exit(1, "error resetting interrupt config: %s", console.Red(err))
				}
				console.PInfof(console.PictoBell, "interrupt enabled, event bits cleared")
				return nil
			},
		},
	},
}
