// Package sim provides an in-memory Qwiic PIR speaking the I2C byte protocol.
// It implements pir.I2CBus, so it can stand in for a real bus under
// pir.Registers in tests and in the CLI (--adapter sim).
//
// Typical usage:
//
//	dev := sim.New()
//	sensor := motion.New(pir.NewRegisters(dev))
//	dev.SetMotion(true)
//	ok, err := sensor.EventAvailable(ctx)
package sim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/pir"
	"github.com/mklimuk/pir/motion"
)

var _ pir.I2CBus = &Device{}

// ErrNACK is returned when no simulated device answers at the address.
var ErrNACK = errors.New("sim: address not acknowledged")

// QueueCapacity is the number of timestamps each firmware queue holds.
const QueueCapacity = 15

const defaultDebounce = 750

type Device struct {
	mx sync.Mutex

	address byte
	id      byte
	major   byte
	minor   byte
	now     func() time.Time

	present  bool
	failure  error
	pointer  byte
	txCount  int
	raw      bool
	latched  byte
	intCfg   byte
	debounce uint16
	detected []time.Time // oldest first
	removed  []time.Time
}

type Option func(*Device)

func WithAddress(address byte) Option {
	return func(d *Device) {
		d.address = address
	}
}

// WithID overrides the value of the ID register.
func WithID(id byte) Option {
	return func(d *Device) {
		d.id = id
	}
}

func WithFirmware(major, minor byte) Option {
	return func(d *Device) {
		d.major = major
		d.minor = minor
	}
}

// WithClock replaces time.Now for queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Device) {
		d.now = now
	}
}

func New(opts ...Option) *Device {
	d := &Device{
		address:  motion.DefaultAddress,
		id:       motion.DeviceID,
		major:    0x01,
		minor:    0x02,
		now:      time.Now,
		present:  true,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) check(address byte) error {
	if d.failure != nil {
		return d.failure
	}
	if !d.present || address != d.address {
		return fmt.Errorf("%w: %#02x", ErrNACK, address)
	}
	return nil
}

// WriteToAddr sets the register pointer from the first byte and stores the
// remaining bytes at consecutive registers.
func (d *Device) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.txCount++
	if err := d.check(address); err != nil {
		return err
	}
	if len(buffer) == 0 {
		return nil
	}
	d.pointer = buffer[0]
	for _, b := range buffer[1:] {
		d.store(d.pointer, b)
		d.pointer++
	}
	return nil
}

// ReadFromAddr reads consecutive registers from the current pointer.
func (d *Device) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.txCount++
	if err := d.check(address); err != nil {
		return err
	}
	now := d.now()
	for i := range buffer {
		buffer[i] = d.load(d.pointer, now)
		d.pointer++
	}
	return nil
}

func (d *Device) Release(ctx context.Context) error {
	return nil
}

func (d *Device) load(reg byte, now time.Time) byte {
	switch {
	case reg == motion.RegID:
		return d.id
	case reg == motion.RegFirmwareMinor:
		return d.minor
	case reg == motion.RegFirmwareMajor:
		return d.major
	case reg == motion.RegEventStatus:
		if d.raw {
			return d.latched | motion.StatusRawReading
		}
		return d.latched
	case reg == motion.RegInterruptConfig:
		return d.intCfg
	case reg == motion.RegEventDebounceTime:
		return byte(d.debounce)
	case reg == motion.RegEventDebounceTime+1:
		return byte(d.debounce >> 8)
	case reg == motion.RegDetectedQueueStatus:
		return queueStatus(d.detected)
	case reg >= motion.RegDetectedQueueFront && reg < motion.RegDetectedQueueBack:
		return ageByte(newest(d.detected), now, reg-motion.RegDetectedQueueFront)
	case reg >= motion.RegDetectedQueueBack && reg < motion.RegRemovedQueueStatus:
		return ageByte(oldest(d.detected), now, reg-motion.RegDetectedQueueBack)
	case reg == motion.RegRemovedQueueStatus:
		return queueStatus(d.removed)
	case reg >= motion.RegRemovedQueueFront && reg < motion.RegRemovedQueueBack:
		return ageByte(newest(d.removed), now, reg-motion.RegRemovedQueueFront)
	case reg >= motion.RegRemovedQueueBack && reg < motion.RegI2CAddress:
		return ageByte(oldest(d.removed), now, reg-motion.RegRemovedQueueBack)
	case reg == motion.RegI2CAddress:
		return d.address
	}
	return 0x00
}

func (d *Device) store(reg, value byte) {
	switch reg {
	case motion.RegEventStatus:
		// latches can only be cleared by the host
		d.latched &= value
	case motion.RegInterruptConfig:
		d.intCfg = value & motion.InterruptEnable
	case motion.RegEventDebounceTime:
		d.debounce = d.debounce&0xFF00 | uint16(value)
	case motion.RegEventDebounceTime + 1:
		d.debounce = d.debounce&0x00FF | uint16(value)<<8
	case motion.RegDetectedQueueStatus:
		if value&motion.QueuePopRequest != 0 && len(d.detected) > 0 {
			d.detected = d.detected[1:]
		}
	case motion.RegRemovedQueueStatus:
		if value&motion.QueuePopRequest != 0 && len(d.removed) > 0 {
			d.removed = d.removed[1:]
		}
	case motion.RegI2CAddress:
		if value >= motion.MinAddress && value <= motion.MaxAddress {
			d.address = value
		}
	}
}

func queueStatus(q []time.Time) byte {
	var b byte
	if len(q) == 0 {
		b |= motion.QueueIsEmpty
	}
	if len(q) >= QueueCapacity {
		b |= motion.QueueIsFull
	}
	return b
}

func newest(q []time.Time) time.Time {
	if len(q) == 0 {
		return time.Time{}
	}
	return q[len(q)-1]
}

func oldest(q []time.Time) time.Time {
	if len(q) == 0 {
		return time.Time{}
	}
	return q[0]
}

func ageByte(ts, now time.Time, idx byte) byte {
	if ts.IsZero() {
		return 0x00
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(now.Sub(ts).Milliseconds()))
	return buf[idx]
}

// SetMotion drives the PIR output. A change of state latches the event
// available bit together with object detected or object removed and queues a
// timestamp.
func (d *Device) SetMotion(raw bool) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if raw == d.raw {
		return
	}
	d.raw = raw
	now := d.now()
	d.latched |= motion.StatusEventAvailable
	if raw {
		d.latched |= motion.StatusObjectDetected
		d.detected = push(d.detected, now)
		return
	}
	d.latched |= motion.StatusObjectRemoved
	d.removed = push(d.removed, now)
}

func push(q []time.Time, ts time.Time) []time.Time {
	if len(q) >= QueueCapacity {
		return q
	}
	return append(q, ts)
}

// Fail makes every following transaction return err. Fail(nil) recovers.
func (d *Device) Fail(err error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.failure = err
}

// Unplug stops the device from acknowledging its address.
func (d *Device) Unplug() {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.present = false
}

func (d *Device) Plug() {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.present = true
}

// Transactions returns the number of bus transactions seen so far.
func (d *Device) Transactions() int {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.txCount
}

func (d *Device) Address() byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.address
}

// Peek returns a register value without going through the bus.
func (d *Device) Peek(reg byte) byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.load(reg, d.now())
}

func (d *Device) QueueLen(q motion.Queue) int {
	d.mx.Lock()
	defer d.mx.Unlock()
	if q == motion.Removed {
		return len(d.removed)
	}
	return len(d.detected)
}
