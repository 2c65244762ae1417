package i2c_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/pir"
	"github.com/mklimuk/pir/i2c"
	"github.com/mklimuk/pir/motion"
)

// Runs against a Qwiic PIR wired to a host bus. Enabled by `dev integration-test`.
func TestGenericBus_Hardware(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION_ENABLED") != "1" {
		t.Skip("integration tests disabled")
	}
	dev := os.Getenv("PIR_DEVICE")
	if dev == "" {
		dev = "/dev/i2c-1"
	}
	bus, err := i2c.NewGenericBus(dev)
	require.NoError(t, err)
	defer bus.Close()

	ctx := context.Background()
	sensor := motion.New(pir.NewRegisters(bus))
	require.NoError(t, sensor.Detect(ctx))

	_, err = sensor.FirmwareVersion(ctx)
	require.NoError(t, err)

	previous, err := sensor.DebounceTime(ctx)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, sensor.SetDebounceTime(ctx, previous))
	}()
	require.NoError(t, sensor.SetDebounceTime(ctx, 500))
	got, err := sensor.DebounceTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(500), got)

	require.NoError(t, sensor.ClearEventBits(ctx))
	_, err = sensor.RawReading(ctx)
	assert.NoError(t, err)
}
