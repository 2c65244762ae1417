package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/pir/motion"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := cli.NewApp()
	app.Name = "pir"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "Qwiic PIR motion sensor bench tool"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "mcp2221",
			Usage:   "bus adapter: mcp2221, generic, nanopi or sim",
			EnvVars: []string{"PIR_ADAPTER"},
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Value:   "/dev/i2c-1",
			Usage:   "I2C bus device for the generic adapter",
			EnvVars: []string{"PIR_DEVICE"},
		},
		&cli.IntFlag{
			Name:    "bus",
			Value:   0,
			Usage:   "I2C bus number for the nanopi adapter",
			EnvVars: []string{"PIR_BUS"},
		},
		&cli.IntFlag{
			Name:    "speed",
			Usage:   "bus clock in kHz for the generic adapter (0 keeps the current setting)",
			EnvVars: []string{"PIR_SPEED"},
		},
		&cli.IntFlag{
			Name:    "index",
			Value:   -1,
			Usage:   "MCP2221 index when several adapters are plugged in",
			EnvVars: []string{"PIR_MCP2221_INDEX"},
		},
		&cli.StringFlag{
			Name:    "address",
			Value:   fmt.Sprintf("%#02x", motion.DefaultAddress),
			Usage:   "sensor I2C address (hex)",
			EnvVars: []string{"PIR_ADDRESS"},
		},
		&cli.DurationFlag{
			Name:  "sim-period",
			Value: 3 * time.Second,
			Usage: "motion toggle period of the simulated sensor",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
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
	// exit codes are handled by run so tests can call it
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) && err.Error() != "" {
			_, _ = fmt.Fprintln(app.ErrWriter, err.Error())
		}
	}
	app.Commands = cli.Commands{
		&detectCmd,
		&statusCmd,
		&rawCmd,
		&availableCmd,
		&clearCmd,
		&debounceCmd,
		&interruptCmd,
		&queueCmd,
		&addressCmd,
		&watchCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		slog.Error("unexpected error", "error", err)
		return 1
	}
	return 0
}
