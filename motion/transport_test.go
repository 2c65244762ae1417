package motion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport is a testify mock of Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) ReadReg(ctx context.Context, addr, reg byte) (byte, error) {
	args := m.Called(ctx, addr, reg)
	return args.Get(0).(byte), args.Error(1)
}

func (m *MockTransport) ReadRegWord(ctx context.Context, addr, reg byte) (uint16, error) {
	args := m.Called(ctx, addr, reg)
	return args.Get(0).(uint16), args.Error(1)
}

func (m *MockTransport) ReadRegBlock(ctx context.Context, addr, reg byte, buf []byte) error {
	args := m.Called(ctx, addr, reg, buf)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buf, data)
	}
	return args.Error(1)
}

func (m *MockTransport) WriteReg(ctx context.Context, addr, reg, value byte) error {
	args := m.Called(ctx, addr, reg, value)
	return args.Error(0)
}

func (m *MockTransport) WriteRegWord(ctx context.Context, addr, reg byte, value uint16) error {
	args := m.Called(ctx, addr, reg, value)
	return args.Error(0)
}

func (m *MockTransport) Ping(ctx context.Context, addr byte) bool {
	args := m.Called(ctx, addr)
	return args.Bool(0)
}

func TestQwiicPIR_BeginReadFailure(t *testing.T) {
	ctx := context.Background()
	tr := &MockTransport{}
	tr.On("Ping", ctx, byte(DefaultAddress)).Return(true)
	tr.On("ReadReg", ctx, byte(DefaultAddress), RegID).Return(byte(0x00), errors.New("timeout"))

	s := New(tr)
	assert.False(t, s.Begin(ctx))
	err := s.Detect(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnexpectedID)
	assert.NotErrorIs(t, err, ErrNotConnected)
}

func TestQwiicPIR_BeginSkipsIDWhenAbsent(t *testing.T) {
	ctx := context.Background()
	tr := &MockTransport{}
	tr.On("Ping", ctx, byte(0x22)).Return(false)

	assert.False(t, New(tr, WithAddress(0x22)).Begin(ctx))
	tr.AssertNotCalled(t, "ReadReg", mock.Anything, mock.Anything, mock.Anything)
}

func TestQwiicPIR_ClearEventBitsWritesBack(t *testing.T) {
	tests := []struct {
		name     string
		status   byte
		expected byte
	}{
		{"all set", 0x0F, 0x01},
		{"latched only", 0x0E, 0x00},
		{"raw only", 0x01, 0x01},
		{"reserved bits kept", 0xF3, 0xF1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			tr := &MockTransport{}
			tr.On("ReadReg", ctx, byte(DefaultAddress), RegEventStatus).Return(test.status, nil).Once()
			tr.On("WriteReg", ctx, byte(DefaultAddress), RegEventStatus, test.expected).Return(nil).Once()

			require.NoError(t, New(tr).ClearEventBits(ctx))
			tr.AssertExpectations(t)
		})
	}
}

func TestQwiicPIR_StatusBits(t *testing.T) {
	tests := []struct {
		given    byte
		expected Status
	}{
		{0x00, Status{}},
		{0x01, Status{RawReading: true}},
		{0x02, Status{EventAvailable: true}},
		{0x04, Status{ObjectRemoved: true}},
		{0x08, Status{ObjectDetected: true}},
		{0x0B, Status{RawReading: true, EventAvailable: true, ObjectDetected: true}},
		{0xF0, Status{}},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, decodeStatus(test.given), "status %#02x", test.given)
	}
}

func TestQwiicPIR_DebounceUsesWord(t *testing.T) {
	ctx := context.Background()
	tr := &MockTransport{}
	tr.On("WriteRegWord", ctx, byte(DefaultAddress), RegEventDebounceTime, uint16(500)).Return(nil).Once()
	tr.On("ReadRegWord", ctx, byte(DefaultAddress), RegEventDebounceTime).Return(uint16(0), errors.New("nack")).Once()

	s := New(tr)
	require.NoError(t, s.SetDebounceTime(ctx, 500))
	_, err := s.DebounceTime(ctx)
	assert.Error(t, err)
	tr.AssertExpectations(t)
}

func TestQwiicPIR_PopSetsRequestBit(t *testing.T) {
	ctx := context.Background()
	tr := &MockTransport{}
	tr.On("ReadRegBlock", ctx, byte(DefaultAddress), RegRemovedQueueBack, mock.Anything).Return([]byte{0xE8, 0x03, 0x00, 0x00}, nil).Once()
	tr.On("ReadReg", ctx, byte(DefaultAddress), RegRemovedQueueStatus).Return(byte(0x00), nil).Once()
	tr.On("WriteReg", ctx, byte(DefaultAddress), RegRemovedQueueStatus, QueuePopRequest).Return(nil).Once()

	age, err := New(tr).PopQueue(ctx, Removed)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), age.Milliseconds())
	tr.AssertExpectations(t)
}

func TestQwiicPIR_UnknownQueue(t *testing.T) {
	_, err := New(&MockTransport{}).QueueEmpty(context.Background(), Queue(7))
	assert.Error(t, err)
	assert.Equal(t, "queue(7)", Queue(7).String())
}

func TestMockMotionSensor_Latches(t *testing.T) {
	readings := []bool{false, true, true, false}
	i := 0
	sensor := NewMockMotionSensor(func(ctx context.Context) (Status, error) {
		r := readings[i]
		i++
		return Status{RawReading: r}, nil
	})
	ctx := context.Background()

	st, err := sensor.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{}, st)

	st, err = sensor.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{RawReading: true, EventAvailable: true, ObjectDetected: true}, st)

	require.NoError(t, sensor.ClearEventBits(ctx))
	st, err = sensor.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{RawReading: true}, st)

	st, err = sensor.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, Status{EventAvailable: true, ObjectRemoved: true}, st)
}

func TestMockMotionSensor_Error(t *testing.T) {
	sensor := NewMockMotionSensor(func(ctx context.Context) (Status, error) {
		return Status{}, errors.New("sensor malfunction")
	})
	_, err := sensor.Status(context.Background())
	assert.Error(t, err)
}
