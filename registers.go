package pir

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
)

// Registers turns a raw I2CBus into a register-level transport. Reads are
// issued as a register pointer write followed by a read transaction, writes as
// a single transaction carrying the register address and the payload.
//
// Multi-byte values follow SMBus conventions (little-endian words).
type Registers struct {
	mx       sync.Mutex
	bus      I2CBus
	attempts int
}

type RegistersOpts struct {
	// BusyAttempts is the number of times a transaction is issued when the bus
	// reports ErrBusBusy. The bus is released after every busy response.
	BusyAttempts int
}

type RegistersOpt func(*RegistersOpts)

func WithBusyAttempts(attempts int) RegistersOpt {
	return func(o *RegistersOpts) {
		o.BusyAttempts = attempts
	}
}

func NewRegisters(bus I2CBus, opts ...RegistersOpt) *Registers {
	config := RegistersOpts{BusyAttempts: 1}
	for _, opt := range opts {
		opt(&config)
	}
	if config.BusyAttempts < 1 {
		config.BusyAttempts = 1
	}
	return &Registers{bus: bus, attempts: config.BusyAttempts}
}

// ReadReg reads a single register.
func (r *Registers) ReadReg(ctx context.Context, addr, reg byte) (byte, error) {
	buf := make([]byte, 1)
	err := r.read(ctx, addr, reg, buf)
	if err != nil {
		return 0x00, err
	}
	return buf[0], nil
}

// ReadRegWord reads two consecutive registers as a little-endian word.
func (r *Registers) ReadRegWord(ctx context.Context, addr, reg byte) (uint16, error) {
	buf := make([]byte, 2)
	err := r.read(ctx, addr, reg, buf)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadRegBlock fills buf starting at reg; the device auto-increments the
// register pointer.
func (r *Registers) ReadRegBlock(ctx context.Context, addr, reg byte, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return r.read(ctx, addr, reg, buf)
}

func (r *Registers) WriteReg(ctx context.Context, addr, reg, value byte) error {
	return r.write(ctx, addr, []byte{reg, value})
}

func (r *Registers) WriteRegWord(ctx context.Context, addr, reg byte, value uint16) error {
	buf := []byte{reg, 0x00, 0x00}
	binary.LittleEndian.PutUint16(buf[1:], value)
	return r.write(ctx, addr, buf)
}

// Ping reports whether a device acknowledges a one-byte read at addr.
func (r *Registers) Ping(ctx context.Context, addr byte) bool {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.bus.ReadFromAddr(ctx, addr, make([]byte, 1)) == nil
}

func (r *Registers) read(ctx context.Context, addr, reg byte, buf []byte) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	err := r.do(ctx, func() error {
		return r.bus.WriteToAddr(ctx, addr, []byte{reg})
	})
	if err != nil {
		return fmt.Errorf("could not set register pointer %#02x on %#02x: %w", reg, addr, err)
	}
	err = r.do(ctx, func() error {
		return r.bus.ReadFromAddr(ctx, addr, buf)
	})
	if err != nil {
		return fmt.Errorf("could not read register %#02x on %#02x: %w", reg, addr, err)
	}
	return nil
}

func (r *Registers) write(ctx context.Context, addr byte, buf []byte) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	err := r.do(ctx, func() error {
		return r.bus.WriteToAddr(ctx, addr, buf)
	})
	if err != nil {
		return fmt.Errorf("could not write register %#02x on %#02x: %w", buf[0], addr, err)
	}
	return nil
}

func (r *Registers) do(ctx context.Context, tx func() error) error {
	var err error
	for i := r.attempts; i > 0; i-- {
		err = tx()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrBusBusy) {
			return err
		}
		// try to release the bus
		_ = r.bus.Release(ctx)
	}
	if r.attempts > 1 {
		return fmt.Errorf("retry limit reached: %w", err)
	}
	return err
}
