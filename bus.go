package pir

import (
	"context"
	"errors"
)

// ErrBusBusy is returned by bus implementations when the I2C engine has not
// completed the previous command.
var ErrBusBusy = errors.New("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	// Release cancels the pending transfer and frees the bus.
	Release(ctx context.Context) error
}

// I2CBus is a raw byte-level I2C master. Every call is a single transaction
// addressed to a 7-bit device address.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
