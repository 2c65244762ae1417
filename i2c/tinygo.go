package i2c

import (
	"context"
	"fmt"

	"tinygo.org/x/drivers"

	"github.com/mklimuk/pir"
)

var _ pir.I2CBus = &TinyGoBus{}

// TinyGoBus adapts a tinygo drivers.I2C (machine.I2C on microcontrollers) to
// pir.I2CBus.
type TinyGoBus struct {
	bus drivers.I2C
}

func NewTinyGoBus(bus drivers.I2C) *TinyGoBus {
	return &TinyGoBus{bus: bus}
}

func (b *TinyGoBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *TinyGoBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *TinyGoBus) Release(ctx context.Context) error {
	return nil
}
