package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/pir"
	"github.com/mklimuk/pir/adapter"
	"github.com/mklimuk/pir/cmd/pir/console"
	"github.com/mklimuk/pir/i2c"
	"github.com/mklimuk/pir/motion"
	"github.com/mklimuk/pir/sim"
	"github.com/mklimuk/pir/snsctx"
)

// parseAddress accepts a 7-bit address in hex, with or without 0x prefix.
func parseAddress(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if v > 0x7F {
		return 0, fmt.Errorf("invalid address %#02x: not a 7-bit address", v)
	}
	return byte(v), nil
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}

// openBus opens the adapter selected with --adapter. The returned function
// releases it.
func openBus(c *cli.Context, address byte) (pir.I2CBus, func(), error) {
	switch c.String("adapter") {
	case "mcp2221":
		ad := adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
		if err := ad.Init(); err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return ad, func() {}, nil
	case "generic":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		closer := func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}
		if khz := c.Int("speed"); khz > 0 {
			if err := bus.SetSpeed(physic.Frequency(khz) * physic.KiloHertz); err != nil {
				closer()
				return nil, nil, fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		return bus, closer, nil
	case "nanopi":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, i2c.WithBusNumber(c.Int("bus")))
		return bus, func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
			_ = npi.I2cBusAdaptor.Finalize()
		}, nil
	case "sim":
		dev := sim.New(sim.WithAddress(address))
		ctx, cancel := context.WithCancel(c.Context)
		go simulateMotion(ctx, dev, c.Duration("sim-period"))
		return dev, cancel, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// simulateMotion toggles the simulated PIR output every period.
func simulateMotion(ctx context.Context, dev *sim.Device, period time.Duration) {
	if period <= 0 {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	raw := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			raw = !raw
			dev.SetMotion(raw)
		}
	}
}

// openSensor opens the bus and returns a sensor that already passed Begin.
func openSensor(c *cli.Context) (*motion.QwiicPIR, func(), error) {
	address, err := parseAddress(c.String("address"))
	if err != nil {
		return nil, nil, console.Exit(1, "%s", err)
	}
	bus, closer, err := openBus(c, address)
	if err != nil {
		return nil, nil, console.Exit(1, "%s", console.Red(err))
	}
	s := motion.New(pir.NewRegisters(bus), motion.WithAddress(address))
	if err := s.Detect(commandContext(c)); err != nil {
		closer()
		return nil, nil, console.Exit(1, "the Qwiic PIR isn't connected to the system, please check your connection: %s", console.Red(err))
	}
	return s, closer, nil
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}

func firmwareString(v uint16) string {
	return fmt.Sprintf("v%d.%d", v>>8, v&0xFF)
}
