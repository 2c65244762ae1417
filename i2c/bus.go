// Package i2c holds host-side buses the Qwiic PIR driver can run on: a Linux
// i2c-dev bus through periph.io, any gobot connector and a tinygo drivers.I2C.
package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/pir"
)

var _ pir.I2CBus = &GenericBus{}

// GenericBus is a host bus (/dev/i2c-N) opened through periph.io. Every
// transfer is a single Tx, so a register pointer write and the following read
// are two transactions; pir.Registers keeps them paired.
type GenericBus struct {
	name string
	bus  i2c.BusCloser
}

// NewGenericBus loads the periph host drivers and opens dev. An empty dev
// opens the first bus periph finds.
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", dev, err)
	}
	return &GenericBus{name: dev, bus: bus}, nil
}

// ReadFromAddr reads len(buffer) bytes. periph transfers cannot be
// interrupted, so ctx is only checked before the transfer starts.
func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.bus.Tx(uint16(address), nil, buffer); err != nil {
		return fmt.Errorf("%s: read %d bytes from %#02x: %w", b.name, len(buffer), address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.bus.Tx(uint16(address), buffer, nil); err != nil {
		return fmt.Errorf("%s: write %d bytes to %#02x: %w", b.name, len(buffer), address, err)
	}
	return nil
}

// SetSpeed changes the bus clock. The sensor supports 100 kHz and 400 kHz.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	if err := b.bus.SetSpeed(f); err != nil {
		return fmt.Errorf("%s: set speed %s: %w", b.name, f, err)
	}
	return nil
}

// Release has nothing to recover; the kernel driver resets the controller
// after a failed transfer.
func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
