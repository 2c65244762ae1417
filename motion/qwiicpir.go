package motion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrNotConnected   = errors.New("qwiic pir: device not connected")
	ErrUnexpectedID   = errors.New("qwiic pir: unexpected device id")
	ErrInvalidAddress = errors.New("qwiic pir: address out of range")
)

// Transport is the register-level bus access the driver needs. Words are
// little-endian. Timeouts and thread safety are up to the implementation.
type Transport interface {
	ReadReg(ctx context.Context, addr, reg byte) (byte, error)
	ReadRegWord(ctx context.Context, addr, reg byte) (uint16, error)
	ReadRegBlock(ctx context.Context, addr, reg byte, buf []byte) error
	WriteReg(ctx context.Context, addr, reg, value byte) error
	WriteRegWord(ctx context.Context, addr, reg byte, value uint16) error
	Ping(ctx context.Context, addr byte) bool
}

// QwiicPIR represents the SparkFun Qwiic PIR motion sensor.
// See: https://www.sparkfun.com/products/17374
//
// Usage: instantiate with New, call Begin(ctx) once, then poll
// EventAvailable(ctx) and ClearEventBits(ctx). Every call is a fresh bus
// transaction; nothing is cached between calls.
type QwiicPIR struct {
	transport Transport
	address   byte
	connected bool
}

type Config struct {
	Address byte
}

type Option func(*Config)

func WithAddress(address byte) Option {
	return func(c *Config) {
		c.Address = address
	}
}

// New creates a driver bound to the given transport. The address defaults to
// DefaultAddress.
func New(trans Transport, opts ...Option) *QwiicPIR {
	config := &Config{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &QwiicPIR{transport: trans, address: config.Address}
}

func (s *QwiicPIR) Address() byte {
	return s.address
}

// Connected reports the outcome of the last Begin.
func (s *QwiicPIR) Connected() bool {
	return s.connected
}

// IsConnected pings the device address.
func (s *QwiicPIR) IsConnected(ctx context.Context) bool {
	return s.transport.Ping(ctx, s.address)
}

// Detect checks that the device acknowledges its address and reports the
// expected identifier.
func (s *QwiicPIR) Detect(ctx context.Context) error {
	if !s.transport.Ping(ctx, s.address) {
		return fmt.Errorf("%w at %#02x", ErrNotConnected, s.address)
	}
	id, err := s.transport.ReadReg(ctx, s.address, RegID)
	if err != nil {
		return fmt.Errorf("qwiic pir: could not read id register: %w", err)
	}
	if id != DeviceID {
		return fmt.Errorf("%w: expected %#02x, got %#02x", ErrUnexpectedID, DeviceID, id)
	}
	return nil
}

// Begin returns true when the device is present and identifies itself as a
// Qwiic PIR. Absence of the device is not an error.
func (s *QwiicPIR) Begin(ctx context.Context) bool {
	err := s.Detect(ctx)
	s.connected = err == nil
	if err != nil {
		slog.DebugContext(ctx, "qwiic pir not detected", "address", fmt.Sprintf("%#02x", s.address), "error", err)
	}
	return s.connected
}

// FirmwareVersion returns major<<8 | minor.
func (s *QwiicPIR) FirmwareVersion(ctx context.Context) (uint16, error) {
	major, err := s.transport.ReadReg(ctx, s.address, RegFirmwareMajor)
	if err != nil {
		return 0, fmt.Errorf("qwiic pir: could not read firmware major: %w", err)
	}
	minor, err := s.transport.ReadReg(ctx, s.address, RegFirmwareMinor)
	if err != nil {
		return 0, fmt.Errorf("qwiic pir: could not read firmware minor: %w", err)
	}
	return uint16(major)<<8 | uint16(minor), nil
}

// Status is a decoded EVENT_STATUS register.
type Status struct {
	RawReading     bool `yaml:"raw_reading"`
	EventAvailable bool `yaml:"event_available"`
	ObjectRemoved  bool `yaml:"object_removed"`
	ObjectDetected bool `yaml:"object_detected"`
}

func decodeStatus(b byte) Status {
	return Status{
		RawReading:     b&StatusRawReading != 0,
		EventAvailable: b&StatusEventAvailable != 0,
		ObjectRemoved:  b&StatusObjectRemoved != 0,
		ObjectDetected: b&StatusObjectDetected != 0,
	}
}

func (s *QwiicPIR) readStatus(ctx context.Context) (byte, error) {
	b, err := s.transport.ReadReg(ctx, s.address, RegEventStatus)
	if err != nil {
		return 0x00, fmt.Errorf("qwiic pir: could not read event status: %w", err)
	}
	return b, nil
}

// Status reads EVENT_STATUS once and decodes all flags.
func (s *QwiicPIR) Status(ctx context.Context) (Status, error) {
	b, err := s.readStatus(ctx)
	if err != nil {
		return Status{}, err
	}
	return decodeStatus(b), nil
}

func (s *QwiicPIR) statusBit(ctx context.Context, bit byte) (bool, error) {
	b, err := s.readStatus(ctx)
	if err != nil {
		return false, err
	}
	return b&bit != 0, nil
}

// RawReading returns the instantaneous PIR output, unaffected by debounce or
// latched events.
func (s *QwiicPIR) RawReading(ctx context.Context) (bool, error) {
	return s.statusBit(ctx, StatusRawReading)
}

// EventAvailable returns true once the motion state changed since the last
// ClearEventBits.
func (s *QwiicPIR) EventAvailable(ctx context.Context) (bool, error) {
	return s.statusBit(ctx, StatusEventAvailable)
}

func (s *QwiicPIR) ObjectDetected(ctx context.Context) (bool, error) {
	return s.statusBit(ctx, StatusObjectDetected)
}

func (s *QwiicPIR) ObjectRemoved(ctx context.Context) (bool, error) {
	return s.statusBit(ctx, StatusObjectRemoved)
}

// ClearEventBits resets the event available, object detected and object
// removed latches. The raw reading bit is written back unchanged.
func (s *QwiicPIR) ClearEventBits(ctx context.Context) error {
	b, err := s.readStatus(ctx)
	if err != nil {
		return err
	}
	err = s.transport.WriteReg(ctx, s.address, RegEventStatus, b&^statusEventMask)
	if err != nil {
		return fmt.Errorf("qwiic pir: could not clear event bits: %w", err)
	}
	return nil
}

// DebounceTime returns the event debounce time in milliseconds.
func (s *QwiicPIR) DebounceTime(ctx context.Context) (uint16, error) {
	ms, err := s.transport.ReadRegWord(ctx, s.address, RegEventDebounceTime)
	if err != nil {
		return 0, fmt.Errorf("qwiic pir: could not read debounce time: %w", err)
	}
	return ms, nil
}

// SetDebounceTime writes the event debounce time in milliseconds. It takes
// effect on the device immediately.
func (s *QwiicPIR) SetDebounceTime(ctx context.Context, ms uint16) error {
	err := s.transport.WriteRegWord(ctx, s.address, RegEventDebounceTime, ms)
	if err != nil {
		return fmt.Errorf("qwiic pir: could not write debounce time: %w", err)
	}
	return nil
}

func (s *QwiicPIR) EnableInterrupt(ctx context.Context) error {
	err := s.transport.WriteReg(ctx, s.address, RegInterruptConfig, InterruptEnable)
	if err != nil {
		return fmt.Errorf("qwiic pir: could not enable interrupt: %w", err)
	}
	return nil
}

func (s *QwiicPIR) DisableInterrupt(ctx context.Context) error {
	err := s.transport.WriteReg(ctx, s.address, RegInterruptConfig, 0x00)
	if err != nil {
		return fmt.Errorf("qwiic pir: could not disable interrupt: %w", err)
	}
	return nil
}

func (s *QwiicPIR) InterruptEnabled(ctx context.Context) (bool, error) {
	b, err := s.transport.ReadReg(ctx, s.address, RegInterruptConfig)
	if err != nil {
		return false, fmt.Errorf("qwiic pir: could not read interrupt config: %w", err)
	}
	return b&InterruptEnable != 0, nil
}

// ResetInterruptConfig enables the interrupt and clears latched events.
func (s *QwiicPIR) ResetInterruptConfig(ctx context.Context) error {
	err := s.EnableInterrupt(ctx)
	if err != nil {
		return err
	}
	return s.ClearEventBits(ctx)
}

// ChangeAddress reprograms the device address and returns a driver bound to
// the new address. The receiver keeps pointing at the old address.
func (s *QwiicPIR) ChangeAddress(ctx context.Context, address byte) (*QwiicPIR, error) {
	if address < MinAddress || address > MaxAddress {
		return nil, fmt.Errorf("%w: %#02x not in [%#02x, %#02x]", ErrInvalidAddress, address, MinAddress, MaxAddress)
	}
	err := s.transport.WriteReg(ctx, s.address, RegI2CAddress, address)
	if err != nil {
		return nil, fmt.Errorf("qwiic pir: could not write new address: %w", err)
	}
	slog.DebugContext(ctx, "qwiic pir address changed", "from", fmt.Sprintf("%#02x", s.address), "to", fmt.Sprintf("%#02x", address))
	return New(s.transport, WithAddress(address)), nil
}
