package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pir/cmd/pir/console"
	"github.com/mklimuk/pir/motion"
)

var watchFlags = []cli.Flag{
	&cli.DurationFlag{
		Name:  "interval",
		Value: 200 * time.Millisecond,
		Usage: "polling interval",
	},
	&cli.DurationFlag{
		Name:  "settle",
		Value: 30 * time.Second,
		Usage: "time to wait for the PIR to stabilize after power-up",
	},
}

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the sensor until interrupted",
	Subcommands: []*cli.Command{
		{
			Name:  "raw",
			Usage: "print the live PIR output on every poll",
			Flags: watchFlags,
			Action: func(c *cli.Context) error {
				return watch(c, func(ctx context.Context, s *motion.QwiicPIR) error {
					return poll(ctx, c.Duration("interval"), func() error {
						raw, err := s.RawReading(ctx)
						if err != nil {
							return err
						}
						if raw {
							console.PInfof(console.PictoMotion, "object detected")
						} else {
							console.PInfof(console.PictoStill, "object removed")
						}
						return nil
					})
				})
			},
		},
		{
			Name:  "events",
			Usage: "print latched detect/remove events and clear them",
			Flags: watchFlags,
			Action: func(c *cli.Context) error {
				return watch(c, func(ctx context.Context, s *motion.QwiicPIR) error {
					return pollEvents(ctx, s, c.Duration("interval"), printEvent)
				})
			},
		},
		{
			Name:  "queue",
			Usage: "print the timestamp queues on every poll",
			Flags: watchFlags,
			Action: func(c *cli.Context) error {
				return watch(c, func(ctx context.Context, s *motion.QwiicPIR) error {
					return poll(ctx, c.Duration("interval"), func() error {
						for _, q := range []motion.Queue{motion.Detected, motion.Removed} {
							r, err := readQueue(c, s, q)
							if err != nil {
								return err
							}
							if r.Empty {
								console.PInfof(console.PictoClock, "%s queue is empty", q)
								continue
							}
							console.PInfof(console.PictoClock, "%s: %s since last, %s since first", q, console.White(r.TimeSinceLast), console.White(r.TimeSinceFirst))
						}
						return nil
					})
				})
			},
		},
	},
}

func watch(c *cli.Context, loop func(ctx context.Context, s *motion.QwiicPIR) error) error {
	s, closer, err := openSensor(c)
	if err != nil {
		return err
	}
	defer closer()
	ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := settle(ctx, c.Duration("settle")); err != nil {
		return nil
	}
	err = loop(ctx, s)
	if err != nil {
		return console.Exit(1, "polling error: %s", console.Red(err))
	}
	console.Infof("watch stopped")
	return nil
}

// settle waits for the PIR to stabilize, printing a countdown.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	console.Infof("waiting %s for the PIR to stabilize", d)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			console.Infof("device stable")
			return nil
		case <-ticker.C:
			d -= time.Second
			console.Printf("%s\r", console.Faint(d))
		}
	}
}

// poll calls fn every interval until ctx is done. Cancellation is not an
// error.
func poll(ctx context.Context, interval time.Duration, fn func() error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := fn(); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pollEvents reports every latched event and clears it.
func pollEvents(ctx context.Context, sensor motion.MotionSensor, interval time.Duration, report func(motion.Status)) error {
	return poll(ctx, interval, func() error {
		st, err := sensor.Status(ctx)
		if err != nil {
			return err
		}
		if !st.EventAvailable {
			return nil
		}
		report(st)
		return sensor.ClearEventBits(ctx)
	})
}

func printEvent(st motion.Status) {
	if st.ObjectDetected {
		console.PInfof(console.PictoMotion, "%s", console.Yellow("object detected"))
	}
	if st.ObjectRemoved {
		console.PInfof(console.PictoStill, "%s", console.Green("object removed"))
	}
}
