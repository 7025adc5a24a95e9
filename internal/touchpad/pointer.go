// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package touchpad

import "math"

// Mode selects the pointer behavior. Mode is external context chosen by
// the mapper, not engine state.
type Mode int

const (
	// ModeTrackpad emits relative motion only, laptop-trackpad style.
	ModeTrackpad Mode = iota
	// ModeHybrid adds a continuous joystick-like velocity term while the
	// finger rests near the touchpad edge.
	ModeHybrid
)

// Tuning is the per-sample configuration snapshot for the pointer engine.
type Tuning struct {
	Sensitivity       float64
	DeadZone          float64
	Smoothing         bool
	SmoothingWindow   int
	Acceleration      bool
	AccelerationPower float64
}

// Motion scale constants. The relative term converts normalized-space
// deltas (range 2.0 across the pad) into pixels; the edge term is a
// velocity in pixels per sample.
const (
	relativeScale = 1000.0
	edgeThreshold = 0.6
	edgeBaseSpeed = 5.0
)

// PointerEngine converts a stream of normalized touchpad positions into
// relative pixel motion. State persists across samples within one touch
// stroke and is cleared on release.
type PointerEngine struct {
	hasLast      bool
	lastX, lastY float64
	bufX, bufY   []float64
}

func NewPointerEngine() *PointerEngine {
	return &PointerEngine{}
}

// Reset clears the stroke state: last position and smoothing buffers.
func (e *PointerEngine) Reset() {
	e.hasLast = false
	e.bufX = e.bufX[:0]
	e.bufY = e.bufY[:0]
}

// Update processes one normalized sample and returns the pixel delta, if
// any. Untouched samples reset the engine and never produce motion.
//
// A delta below the dead zone still advances the last-seen position, so
// suppressed micro-movements cannot accumulate into a jump later.
func (e *PointerEngine) Update(mode Mode, nx, ny float64, touched bool, t Tuning) (int, int, bool) {
	if !touched {
		e.Reset()
		return 0, 0, false
	}

	var totalX, totalY float64

	if e.hasLast {
		dx := nx - e.lastX
		dy := ny - e.lastY

		if math.Hypot(dx, dy) < t.DeadZone {
			dx, dy = 0, 0
		} else {
			if t.Smoothing && t.SmoothingWindow >= 1 {
				e.bufX = append(e.bufX, dx)
				e.bufY = append(e.bufY, dy)
				for len(e.bufX) > t.SmoothingWindow {
					e.bufX = e.bufX[1:]
					e.bufY = e.bufY[1:]
				}
				dx = mean(e.bufX)
				dy = mean(e.bufY)
			} else {
				e.bufX = e.bufX[:0]
				e.bufY = e.bufY[:0]
			}

			if t.Acceleration {
				dx = signedPow(dx, t.AccelerationPower)
				dy = signedPow(dy, t.AccelerationPower)
			}
		}

		totalX = dx * t.Sensitivity * relativeScale
		totalY = dy * t.Sensitivity * relativeScale
	}
	e.lastX, e.lastY = nx, ny
	e.hasLast = true

	if mode == ModeHybrid {
		if math.Abs(nx) > edgeThreshold {
			totalX += sign(nx) * (math.Abs(nx) - edgeThreshold) * edgeBaseSpeed * t.Sensitivity
		}
		if math.Abs(ny) > edgeThreshold {
			totalY += sign(ny) * (math.Abs(ny) - edgeThreshold) * edgeBaseSpeed * t.Sensitivity
		}
	}

	// Sub-pixel output is jitter, not motion.
	if math.Abs(totalX) < 1.0 && math.Abs(totalY) < 1.0 {
		return 0, 0, false
	}
	return int(totalX), int(totalY), true
}

// BufferedSamples reports the current smoothing buffer length.
func (e *PointerEngine) BufferedSamples() int {
	return len(e.bufX)
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

func signedPow(v, p float64) float64 {
	return sign(v) * math.Pow(math.Abs(v), p)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
