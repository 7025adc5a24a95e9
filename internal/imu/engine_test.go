package imu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

func gyroReading(gx, gy, gz float64) *controller.Reading {
	return &controller.Reading{GyroX: gx, GyroY: gy, GyroZ: gz}
}

func TestCalibrationConvergence(t *testing.T) {
	e := NewEngine()
	tun := Tuning{Sensitivity: 2.0}

	e.StartCalibration()
	require.True(t, e.Calibrating())

	// Feed a known constant bias for exactly the target count. No motion
	// may be produced while calibrating.
	for i := 0; i < CalibrationTarget; i++ {
		_, _, ok := e.Delta(gyroReading(1.25, -0.75, 0.5), tun)
		assert.False(t, ok)
	}
	assert.False(t, e.Calibrating())

	ox, oy, oz := e.Offsets()
	assert.InDelta(t, 1.25, ox, 1e-9)
	assert.InDelta(t, -0.75, oy, 1e-9)
	assert.InDelta(t, 0.5, oz, 1e-9)

	// The same constant signal is now pure bias: zero after removal.
	for i := 0; i < 5; i++ {
		_, _, ok := e.Delta(gyroReading(1.25, -0.75, 0.5), tun)
		assert.False(t, ok)
	}
}

func TestCalibrationProgress(t *testing.T) {
	e := NewEngine()
	e.StartCalibration()
	assert.InDelta(t, 0.0, e.CalibrationProgress(), 1e-9)

	for i := 0; i < CalibrationTarget/2; i++ {
		e.Delta(gyroReading(0, 0, 0), Tuning{Sensitivity: 1})
	}
	assert.InDelta(t, 0.5, e.CalibrationProgress(), 1e-9)
}

func TestDeltaAboveDeadZone(t *testing.T) {
	e := NewEngine()
	tun := Tuning{Sensitivity: 2.0}

	// Constant rate well above the dead zone; the smoothing mean equals
	// the input after the window fills.
	var dx, dy int
	var ok bool
	for i := 0; i < 4; i++ {
		dx, dy, ok = e.Delta(gyroReading(2.0, -1.0, 0), tun)
	}
	require.True(t, ok)
	assert.Equal(t, int(2.0*50.0*2.0), dx)
	assert.Equal(t, int(-1.0*50.0*2.0), dy)
}

func TestDeltaBelowDeadZoneIsSilent(t *testing.T) {
	e := NewEngine()
	tun := Tuning{Sensitivity: 2.0}

	for i := 0; i < 10; i++ {
		_, _, ok := e.Delta(gyroReading(0.3, -0.2, 0), tun)
		assert.False(t, ok)
	}
}

func TestDeltaAxisMapping(t *testing.T) {
	tun := Tuning{Sensitivity: 1.0, Axes: AxisMap{Swap: true, InvertY: true}}

	e := NewEngine()
	var dx, dy int
	for i := 0; i < 4; i++ {
		dx, dy, _ = e.Delta(gyroReading(2.0, 1.0, 0), tun)
	}
	// Swap routes gyro Y (1.0) to X, and gyro X (2.0) to inverted Y.
	assert.Equal(t, int(1.0*50.0), dx)
	assert.Equal(t, int(-2.0*50.0), dy)
}

func TestTiltScroll(t *testing.T) {
	up, ok := TiltScroll(&controller.Reading{AccelY: 0.5})
	require.True(t, ok)
	assert.Equal(t, 1, up)

	down, ok := TiltScroll(&controller.Reading{AccelY: -0.5})
	require.True(t, ok)
	assert.Equal(t, -1, down)

	_, ok = TiltScroll(&controller.Reading{AccelY: 0.1})
	assert.False(t, ok)
}

func TestDetectShake(t *testing.T) {
	// Resting: ~1g.
	assert.False(t, DetectShake(&controller.Reading{AccelZ: 1.0}))
	assert.True(t, DetectShake(&controller.Reading{AccelX: 2.0, AccelY: 2.0}))
}
