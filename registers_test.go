package pir

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockI2CBus is a testify mock of I2CBus. ReadFromAddr copies the first
// return value into the caller's buffer when it is a []byte.
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestRegisters_ReadReg(t *testing.T) {
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x03}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x12), mock.AnythingOfType("[]uint8")).Return([]byte{0x09}, nil).Once()

	val, err := NewRegisters(bus).ReadReg(ctx, 0x12, 0x03)
	require.NoError(t, err)
	assert.Equal(t, byte(0x09), val)
	bus.AssertExpectations(t)
}

func TestRegisters_ReadRegWord(t *testing.T) {
	tests := []struct {
		name     string
		given    []byte
		expected uint16
	}{
		{"zero", []byte{0x00, 0x00}, 0},
		{"500", []byte{0xF4, 0x01}, 500},
		{"max", []byte{0xFF, 0xFF}, 0xFFFF},
		{"high byte only", []byte{0x00, 0x01}, 256},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := &MockI2CBus{}
			ctx := context.Background()
			bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x05}).Return(nil)
			bus.On("ReadFromAddr", ctx, byte(0x12), mock.MatchedBy(func(b []byte) bool { return len(b) == 2 })).Return(test.given, nil)

			val, err := NewRegisters(bus).ReadRegWord(ctx, 0x12, 0x05)
			require.NoError(t, err)
			assert.Equal(t, test.expected, val)
		})
	}
}

func TestRegisters_WriteRegWord(t *testing.T) {
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x05, 0xF4, 0x01}).Return(nil).Once()

	err := NewRegisters(bus).WriteRegWord(ctx, 0x12, 0x05, 500)
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestRegisters_WriteReg(t *testing.T) {
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x04, 0x01}).Return(nil).Once()

	require.NoError(t, NewRegisters(bus).WriteReg(ctx, 0x12, 0x04, 0x01))
	bus.AssertExpectations(t)
}

func TestRegisters_ReadFailure(t *testing.T) {
	nack := errors.New("nack")
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x00}).Return(nack)

	_, err := NewRegisters(bus).ReadReg(ctx, 0x12, 0x00)
	assert.ErrorIs(t, err, nack)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisters_BusBusyReleasesBus(t *testing.T) {
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x04, 0x00}).Return(ErrBusBusy).Once()
	bus.On("Release", ctx).Return(nil).Once()

	err := NewRegisters(bus).WriteReg(ctx, 0x12, 0x04, 0x00)
	assert.ErrorIs(t, err, ErrBusBusy)
	bus.AssertExpectations(t)
}

func TestRegisters_BusBusyAttempts(t *testing.T) {
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x04, 0x00}).Return(ErrBusBusy).Once()
	bus.On("Release", ctx).Return(nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x12), []byte{0x04, 0x00}).Return(nil).Once()

	err := NewRegisters(bus, WithBusyAttempts(3)).WriteReg(ctx, 0x12, 0x04, 0x00)
	require.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestRegisters_Ping(t *testing.T) {
	bus := &MockI2CBus{}
	ctx := context.Background()
	bus.On("ReadFromAddr", ctx, byte(0x12), mock.Anything).Return(nil, nil)
	bus.On("ReadFromAddr", ctx, byte(0x13), mock.Anything).Return(nil, errors.New("nack"))

	r := NewRegisters(bus)
	assert.True(t, r.Ping(ctx, 0x12))
	assert.False(t, r.Ping(ctx, 0x13))
}
