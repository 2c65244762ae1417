package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pir"
	"github.com/mklimuk/pir/cmd/pir/console"
	"github.com/mklimuk/pir/motion"
)

var detectCmd = cli.Command{
	Name:  "detect",
	Usage: "check that a Qwiic PIR answers at the configured address",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		address, err := parseAddress(c.String("address"))
		if err != nil {
			return console.Exit(1, "%s", err)
		}
		bus, closer, err := openBus(c, address)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		defer closer()
		s := motion.New(pir.NewRegisters(bus), motion.WithAddress(address))
		if !s.Begin(ctx) {
			return console.Exit(1, "the Qwiic PIR isn't connected to the system, please check your connection: %s", console.Red(s.Detect(ctx)))
		}
		fw, err := s.FirmwareVersion(ctx)
		if err != nil {
			return console.Exit(1, "could not read firmware version: %s", console.Red(err))
		}
		console.PInfof(console.PictoPin, "Qwiic PIR acknowledged at %s, firmware %s", console.White(hexByte(address)), console.White(firmwareString(fw)))
		return nil
	},
}

type queueReport struct {
	Empty          bool   `yaml:"empty"`
	Full           bool   `yaml:"full"`
	TimeSinceLast  string `yaml:"time_since_last,omitempty"`
	TimeSinceFirst string `yaml:"time_since_first,omitempty"`
}

type sensorReport struct {
	Address          string        `yaml:"address"`
	Firmware         string        `yaml:"firmware"`
	Status           motion.Status `yaml:"status"`
	DebounceMs       uint16        `yaml:"debounce_ms"`
	InterruptEnabled bool          `yaml:"interrupt_enabled"`
	Detected         queueReport   `yaml:"detected_queue"`
	Removed          queueReport   `yaml:"removed_queue"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "dump all sensor registers as YAML",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		s, closer, err := openSensor(c)
		if err != nil {
			return err
		}
		defer closer()
		report := sensorReport{Address: hexByte(s.Address())}
		fw, err := s.FirmwareVersion(ctx)
		if err != nil {
			return console.Exit(1, "could not read firmware version: %s", console.Red(err))
		}
		report.Firmware = firmwareString(fw)
		report.Status, err = s.Status(ctx)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		report.DebounceMs, err = s.DebounceTime(ctx)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		report.InterruptEnabled, err = s.InterruptEnabled(ctx)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		report.Detected, err = readQueue(c, s, motion.Detected)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		report.Removed, err = readQueue(c, s, motion.Removed)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		return encodeYAML(report)
	},
}

func readQueue(c *cli.Context, s *motion.QwiicPIR, q motion.Queue) (queueReport, error) {
	ctx := commandContext(c)
	var r queueReport
	var err error
	r.Empty, err = s.QueueEmpty(ctx, q)
	if err != nil {
		return r, err
	}
	r.Full, err = s.QueueFull(ctx, q)
	if err != nil {
		return r, err
	}
	if r.Empty {
		return r, nil
	}
	last, err := s.TimeSinceLast(ctx, q)
	if err != nil {
		return r, err
	}
	first, err := s.TimeSinceFirst(ctx, q)
	if err != nil {
		return r, err
	}
	r.TimeSinceLast = last.String()
	r.TimeSinceFirst = first.String()
	return r, nil
}
