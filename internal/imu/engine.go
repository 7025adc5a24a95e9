// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package imu computes air-mouse pointer motion from gyroscope data,
// with bias calibration and tilt/shake auxiliary detectors.
package imu

import (
	"math"

	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// AxisMap selects which gyroscope axes drive the cursor. The right
// mapping depends on how the controller is held, so it is configuration,
// not a fixed law.
type AxisMap struct {
	// Swap routes gyro Y to cursor X and vice versa.
	Swap bool
	// InvertX and InvertY flip the respective cursor axis.
	InvertX bool
	InvertY bool
}

// Tuning is the per-sample configuration snapshot for the engine.
type Tuning struct {
	Sensitivity float64
	Axes        AxisMap
}

const (
	// CalibrationTarget is the number of still samples averaged into the
	// gyro bias offsets.
	CalibrationTarget = 50

	smoothingWindow = 3
	gyroDeadZone    = 0.5
	motionEpsilon   = 0.01
	pixelScale      = 50.0

	tiltThreshold  = 0.3
	shakeThreshold = 2.5
)

// Engine is the stateful gyro-to-cursor pipeline. One engine per session;
// it persists across packets until reset or recalibrated.
type Engine struct {
	calibrating bool
	samples     [][3]float64

	offsetX, offsetY, offsetZ float64

	bufX, bufY []float64

	// Placeholder accumulators for absolute-orientation integration.
	yaw, pitch float64
}

func NewEngine() *Engine {
	return &Engine{}
}

// StartCalibration begins a bias-measurement run. The controller should
// be at rest until the run completes.
func (e *Engine) StartCalibration() {
	e.samples = e.samples[:0]
	e.calibrating = true
}

// Calibrating reports whether a calibration run is active.
func (e *Engine) Calibrating() bool {
	return e.calibrating
}

// CalibrationProgress reports the accumulated/target fraction in [0,1].
func (e *Engine) CalibrationProgress() float64 {
	return float64(len(e.samples)) / float64(CalibrationTarget)
}

// Offsets returns the current gyro bias offsets.
func (e *Engine) Offsets() (x, y, z float64) {
	return e.offsetX, e.offsetY, e.offsetZ
}

// Delta computes the cursor delta for one reading. While calibrating the
// sample is consumed for bias measurement and no motion is produced.
func (e *Engine) Delta(r *controller.Reading, t Tuning) (int, int, bool) {
	if e.calibrating {
		e.samples = append(e.samples, [3]float64{r.GyroX, r.GyroY, r.GyroZ})
		if len(e.samples) >= CalibrationTarget {
			e.finishCalibration()
		}
		return 0, 0, false
	}

	gx := r.GyroX - e.offsetX
	gy := r.GyroY - e.offsetY

	e.bufX = append(e.bufX, gx)
	e.bufY = append(e.bufY, gy)
	for len(e.bufX) > smoothingWindow {
		e.bufX = e.bufX[1:]
		e.bufY = e.bufY[1:]
	}
	sx := mean(e.bufX)
	sy := mean(e.bufY)

	if math.Abs(sx) <= gyroDeadZone {
		sx = 0
	}
	if math.Abs(sy) <= gyroDeadZone {
		sy = 0
	}
	if math.Abs(sx) < motionEpsilon && math.Abs(sy) < motionEpsilon {
		return 0, 0, false
	}

	dx, dy := sx, sy
	if t.Axes.Swap {
		dx, dy = dy, dx
	}
	if t.Axes.InvertX {
		dx = -dx
	}
	if t.Axes.InvertY {
		dy = -dy
	}

	scale := pixelScale * t.Sensitivity
	return int(dx * scale), int(dy * scale), true
}

// TiltScroll returns a single scroll tick when the vertical accelerometer
// axis shows the controller tilted past the threshold. Stateless.
func TiltScroll(r *controller.Reading) (int, bool) {
	switch {
	case r.AccelY > tiltThreshold:
		return 1, true
	case r.AccelY < -tiltThreshold:
		return -1, true
	default:
		return 0, false
	}
}

// DetectShake reports whether the acceleration magnitude is well above
// gravity. Stateless.
func DetectShake(r *controller.Reading) bool {
	m := math.Sqrt(r.AccelX*r.AccelX + r.AccelY*r.AccelY + r.AccelZ*r.AccelZ)
	return m > shakeThreshold
}

// ResetOrientation clears accumulated orientation state (re-center).
func (e *Engine) ResetOrientation() {
	e.yaw = 0
	e.pitch = 0
}

func (e *Engine) finishCalibration() {
	n := float64(len(e.samples))
	if n == 0 {
		e.calibrating = false
		return
	}
	var sx, sy, sz float64
	for _, s := range e.samples {
		sx += s[0]
		sy += s[1]
		sz += s[2]
	}
	e.offsetX = sx / n
	e.offsetY = sy / n
	e.offsetZ = sz / n
	e.samples = e.samples[:0]
	e.calibrating = false
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
