package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pir/cmd/pir/console"
	"github.com/mklimuk/pir/motion"
)

func parseQueue(s string) (motion.Queue, error) {
	switch s {
	case "d", "detected":
		return motion.Detected, nil
	case "r", "removed":
		return motion.Removed, nil
	}
	return 0, fmt.Errorf("unknown queue %q, expected detected or removed", s)
}

var queueCmd = cli.Command{
	Name:  "queue",
	Usage: "inspect the detected and removed timestamp queues",
	Subcommands: []*cli.Command{
		{
			Name:      "status",
			Usage:     "print queue state and timestamps",
			ArgsUsage: "[detected|removed]",
			Action: func(c *cli.Context) error {
				queues := []motion.Queue{motion.Detected, motion.Removed}
				if c.NArg() > 0 {
					q, err := parseQueue(c.Args().First())
					if err != nil {
						return console.Exit(1, "%s", err)
					}
					queues = []motion.Queue{q}
				}
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				for _, q := range queues {
					r, err := readQueue(c, s, q)
					if err != nil {
						return console.Exit(1, "error reading %s queue: %s", q, console.Red(err))
					}
					if r.Empty {
						console.PInfof(console.PictoClock, "%s queue is empty", q)
						continue
					}
					console.PInfof(console.PictoClock, "%s queue: last %s ago, first %s ago, full: %s",
						q, console.White(r.TimeSinceLast), console.White(r.TimeSinceFirst), console.Flag(r.Full))
				}
				return nil
			},
		},
		{
			Name:      "pop",
			Usage:     "pop the oldest timestamp from a queue",
			ArgsUsage: "<detected|removed>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return console.Exit(1, "expected 1 argument, got %d", c.NArg())
				}
				q, err := parseQueue(c.Args().First())
				if err != nil {
					return console.Exit(1, "%s", err)
				}
				s, closer, err := openSensor(c)
				if err != nil {
					return err
				}
				defer closer()
				ctx := commandContext(c)
				empty, err := s.QueueEmpty(ctx, q)
				if err != nil {
					return console.Exit(1, "error reading %s queue: %s", q, console.Red(err))
				}
				if empty {
					console.Warnf("%s queue is empty", q)
					return nil
				}
				age, err := s.PopQueue(ctx, q)
				if err != nil {
					return console.Exit(1, "error popping %s queue: %s", q, console.Red(err))
				}
				console.PInfof(console.PictoClock, "popped %s queue, the oldest timestamp was %s ago", q, console.White(age.Round(time.Millisecond)))
				return nil
			},
		},
	},
}
