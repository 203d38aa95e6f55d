package daq_test

import (
	"testing"

	"github.com/dalphys/chromatographd/internal/daq"
	"github.com/dalphys/chromatographd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValveMasks(t *testing.T) {
	// Bit layout from the wiring: V1 = 0x02 through V7 = 0x80.
	expected := map[daq.Valve]uint8{
		daq.V1: 0x02,
		daq.V2: 0x04,
		daq.V3: 0x08,
		daq.V4: 0x10,
		daq.V5: 0x20,
		daq.V6: 0x40,
		daq.V7: 0x80,
	}
	for v, mask := range expected {
		assert.Equal(t, mask, v.Mask(), "mask for %s", v)
	}
}

func TestValveManualOnly(t *testing.T) {
	assert.True(t, daq.V1.ManualOnly())
	assert.True(t, daq.V7.ManualOnly())
	for _, v := range []daq.Valve{daq.V2, daq.V3, daq.V4, daq.V5, daq.V6} {
		assert.False(t, v.ManualOnly(), "%s should be sequenceable", v)
	}
}

func TestParseValve(t *testing.T) {
	v, err := daq.ParseValve(3)
	require.NoError(t, err)
	assert.Equal(t, daq.V3, v)
	assert.Equal(t, "V3", v.String())

	_, err = daq.ParseValve(0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidValve, errors.Code(err))

	_, err = daq.ParseValve(8)
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidValve, errors.Code(err))
}

func TestSimulatedPortWriteLog(t *testing.T) {
	port := daq.NewSimulatedPort()

	require.NoError(t, port.SetValve(daq.V4, true))
	require.NoError(t, port.SetValve(daq.V6, true))
	require.NoError(t, port.SetValve(daq.V4, false))

	writes := port.Writes()
	require.Len(t, writes, 3)
	assert.Equal(t, daq.V4, writes[0].Valve)
	assert.True(t, writes[0].Open)
	assert.Equal(t, daq.V6, writes[1].Valve)
	assert.Equal(t, daq.V4, writes[2].Valve)
	assert.False(t, writes[2].Open)

	assert.False(t, port.ValveOpen(daq.V4))
	assert.True(t, port.ValveOpen(daq.V6))
}

func TestSimulatedPortRead(t *testing.T) {
	port := daq.NewSimulatedPort()

	v, err := port.ReadDifferential(1)
	require.NoError(t, err)
	assert.Greater(t, v, 0.0, "signal should sit above zero baseline")
	assert.Less(t, v, 2.0, "signal should stay within the detector range")
	assert.Equal(t, 1, port.ReadCount())
}

func TestSimulatedPortFailureInjection(t *testing.T) {
	port := daq.NewSimulatedPort()
	port.FailReadAt = 2
	port.FailValve = daq.V3

	_, err := port.ReadDifferential(1)
	require.NoError(t, err)
	_, err = port.ReadDifferential(1)
	require.Error(t, err)
	assert.Equal(t, errors.ErrAnalogRead, errors.Code(err))

	err = port.SetValve(daq.V3, true)
	require.Error(t, err)
	assert.Equal(t, errors.ErrValveWrite, errors.Code(err))

	// Other valves still work.
	require.NoError(t, port.SetValve(daq.V2, true))
}

func TestSimulatedPortClosed(t *testing.T) {
	port := daq.NewSimulatedPort()
	require.NoError(t, port.Close())
	require.NoError(t, port.Close(), "closing twice is harmless")

	err := port.SetValve(daq.V2, true)
	assert.Equal(t, errors.ErrPortClosed, errors.Code(err))

	_, err = port.ReadDifferential(1)
	assert.Equal(t, errors.ErrPortClosed, errors.Code(err))
}

func TestOpenPort(t *testing.T) {
	port, err := daq.OpenPort("sim")
	require.NoError(t, err)
	require.NoError(t, port.Close())

	_, err = daq.OpenPort("Dev1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnsupportedDevice, errors.Code(err))
}
