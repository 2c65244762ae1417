package motion_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/pir"
	"github.com/mklimuk/pir/motion"
	"github.com/mklimuk/pir/sim"
)

func newSensor(t *testing.T, opts ...sim.Option) (*motion.QwiicPIR, *sim.Device) {
	t.Helper()
	dev := sim.New(opts...)
	return motion.New(pir.NewRegisters(dev)), dev
}

func TestQwiicPIR_Begin(t *testing.T) {
	for id := 0; id < 256; id++ {
		t.Run(fmt.Sprintf("%#02x", id), func(t *testing.T) {
			s, _ := newSensor(t, sim.WithID(byte(id)))
			assert.Equal(t, id == motion.DeviceID, s.Begin(context.Background()))
		})
	}
}

func TestQwiicPIR_DetectReasons(t *testing.T) {
	ctx := context.Background()

	s, dev := newSensor(t)
	require.NoError(t, s.Detect(ctx))
	assert.True(t, s.Begin(ctx))
	assert.True(t, s.Connected())

	dev.Unplug()
	assert.ErrorIs(t, s.Detect(ctx), motion.ErrNotConnected)
	assert.False(t, s.Begin(ctx))
	assert.False(t, s.Connected())

	s, _ = newSensor(t, sim.WithID(0x42))
	assert.ErrorIs(t, s.Detect(ctx), motion.ErrUnexpectedID)

	s, _ = newSensor(t, sim.WithAddress(0x30))
	assert.False(t, s.Begin(ctx))
	s = motion.New(pir.NewRegisters(sim.New(sim.WithAddress(0x30))), motion.WithAddress(0x30))
	assert.True(t, s.Begin(ctx))
}

func TestQwiicPIR_Scenario(t *testing.T) {
	ctx := context.Background()
	s, dev := newSensor(t)
	require.True(t, s.Begin(ctx))

	dev.SetMotion(true)
	raw, err := s.RawReading(ctx)
	require.NoError(t, err)
	assert.True(t, raw)

	require.NoError(t, s.SetDebounceTime(ctx, 500))
	assert.Equal(t, byte(0xF4), dev.Peek(motion.RegEventDebounceTime))
	assert.Equal(t, byte(0x01), dev.Peek(motion.RegEventDebounceTime+1))
	ms, err := s.DebounceTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(500), ms)
}

func TestQwiicPIR_DebounceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newSensor(t)
	for _, v := range []uint16{0, 1, 255, 256, 500, 750, 0x1234, 0xFF00, 0xFFFF} {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			require.NoError(t, s.SetDebounceTime(ctx, v))
			got, err := s.DebounceTime(ctx)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestQwiicPIR_ClearEventBits(t *testing.T) {
	ctx := context.Background()
	s, dev := newSensor(t)

	available, err := s.EventAvailable(ctx)
	require.NoError(t, err)
	assert.False(t, available)

	dev.SetMotion(true)
	st, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, motion.Status{RawReading: true, EventAvailable: true, ObjectDetected: true}, st)

	require.NoError(t, s.ClearEventBits(ctx))
	available, err = s.EventAvailable(ctx)
	require.NoError(t, err)
	assert.False(t, available)

	// clearing does not touch the live reading
	raw, err := s.RawReading(ctx)
	require.NoError(t, err)
	assert.True(t, raw)

	dev.SetMotion(false)
	removed, err := s.ObjectRemoved(ctx)
	require.NoError(t, err)
	assert.True(t, removed)
	detected, err := s.ObjectDetected(ctx)
	require.NoError(t, err)
	assert.False(t, detected)
}

func TestQwiicPIR_RawReadingNotCached(t *testing.T) {
	ctx := context.Background()
	s, dev := newSensor(t)
	for _, want := range []bool{true, true, false, true, false, false} {
		dev.SetMotion(want)
		before := dev.Transactions()
		raw, err := s.RawReading(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, raw)
		assert.Greater(t, dev.Transactions(), before)
	}
}

func TestQwiicPIR_Interrupt(t *testing.T) {
	ctx := context.Background()
	s, dev := newSensor(t)

	require.NoError(t, s.EnableInterrupt(ctx))
	assert.Equal(t, motion.InterruptEnable, dev.Peek(motion.RegInterruptConfig))
	enabled, err := s.InterruptEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.DisableInterrupt(ctx))
	assert.Equal(t, byte(0x00), dev.Peek(motion.RegInterruptConfig))

	dev.SetMotion(true)
	require.NoError(t, s.ResetInterruptConfig(ctx))
	assert.Equal(t, motion.InterruptEnable, dev.Peek(motion.RegInterruptConfig))
	available, err := s.EventAvailable(ctx)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestQwiicPIR_FirmwareVersion(t *testing.T) {
	s, _ := newSensor(t, sim.WithFirmware(0x02, 0x05))
	v, err := s.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0205), v)
}

func TestQwiicPIR_IOFailure(t *testing.T) {
	nack := errors.New("nack")
	ctx := context.Background()
	s, dev := newSensor(t)
	dev.Fail(nack)

	calls := map[string]func() error{
		"raw": func() error {
			_, err := s.RawReading(ctx)
			return err
		},
		"available": func() error {
			_, err := s.EventAvailable(ctx)
			return err
		},
		"detected": func() error {
			_, err := s.ObjectDetected(ctx)
			return err
		},
		"removed": func() error {
			_, err := s.ObjectRemoved(ctx)
			return err
		},
		"clear": func() error {
			return s.ClearEventBits(ctx)
		},
		"get debounce": func() error {
			_, err := s.DebounceTime(ctx)
			return err
		},
		"set debounce": func() error {
			return s.SetDebounceTime(ctx, 100)
		},
		"enable interrupt": func() error {
			return s.EnableInterrupt(ctx)
		},
		"disable interrupt": func() error {
			return s.DisableInterrupt(ctx)
		},
		"firmware": func() error {
			_, err := s.FirmwareVersion(ctx)
			return err
		},
		"queue empty": func() error {
			_, err := s.QueueEmpty(ctx, motion.Detected)
			return err
		},
		"pop": func() error {
			_, err := s.PopQueue(ctx, motion.Removed)
			return err
		},
		"queue full": func() error {
			_, err := s.QueueFull(ctx, motion.Removed)
			return err
		},
		"time since last": func() error {
			_, err := s.TimeSinceLast(ctx, motion.Detected)
			return err
		},
		"time since first": func() error {
			_, err := s.TimeSinceFirst(ctx, motion.Removed)
			return err
		},
		"interrupt enabled": func() error {
			_, err := s.InterruptEnabled(ctx)
			return err
		},
		"reset interrupt": func() error {
			return s.ResetInterruptConfig(ctx)
		},
		"change address": func() error {
			moved, err := s.ChangeAddress(ctx, 0x5B)
			assert.Nil(t, moved)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), nack)
		})
	}
	assert.False(t, s.Begin(ctx))
}

func TestQwiicPIR_Queues(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, dev := newSensor(t, sim.WithClock(func() time.Time { return now }))

	empty, err := s.QueueEmpty(ctx, motion.Detected)
	require.NoError(t, err)
	assert.True(t, empty)

	dev.SetMotion(true)
	now = now.Add(2 * time.Second)
	dev.SetMotion(false)
	now = now.Add(time.Second)
	dev.SetMotion(true)
	now = now.Add(250 * time.Millisecond)

	empty, err = s.QueueEmpty(ctx, motion.Detected)
	require.NoError(t, err)
	assert.False(t, empty)
	full, err := s.QueueFull(ctx, motion.Detected)
	require.NoError(t, err)
	assert.False(t, full)

	last, err := s.TimeSinceLast(ctx, motion.Detected)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, last)
	first, err := s.TimeSinceFirst(ctx, motion.Detected)
	require.NoError(t, err)
	assert.Equal(t, 3250*time.Millisecond, first)

	removed, err := s.TimeSinceLast(ctx, motion.Removed)
	require.NoError(t, err)
	assert.Equal(t, 1250*time.Millisecond, removed)

	popped, err := s.PopQueue(ctx, motion.Detected)
	require.NoError(t, err)
	assert.Equal(t, 3250*time.Millisecond, popped)
	assert.Equal(t, 1, dev.QueueLen(motion.Detected))
	first, err = s.TimeSinceFirst(ctx, motion.Detected)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, first)
}

func TestQwiicPIR_ChangeAddress(t *testing.T) {
	ctx := context.Background()
	s, dev := newSensor(t)

	_, err := s.ChangeAddress(ctx, 0x07)
	assert.ErrorIs(t, err, motion.ErrInvalidAddress)
	_, err = s.ChangeAddress(ctx, 0x78)
	assert.ErrorIs(t, err, motion.ErrInvalidAddress)
	assert.Equal(t, byte(motion.DefaultAddress), dev.Address())

	moved, err := s.ChangeAddress(ctx, 0x5B)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5B), moved.Address())
	assert.Equal(t, byte(motion.DefaultAddress), s.Address())
	assert.True(t, moved.Begin(ctx))
	assert.False(t, s.Begin(ctx))
}
