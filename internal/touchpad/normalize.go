// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package touchpad turns raw touchpad coordinates into calibrated
// normalized positions and relative pointer motion.
package touchpad

import (
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// Normalize fills in the reading's normalized coordinates from the raw
// touchpad values and the current calibration. Output is in [-1,1] per
// axis, clamped. Stateless; callers react to the touch-release edge by
// resetting their dependent engines.
func Normalize(r *controller.Reading, cal controller.TouchpadCalibration) {
	r.NormX = normalizeAxis(r.TouchX, cal.CenterX, cal.MinX, cal.MaxX)
	r.NormY = normalizeAxis(r.TouchY, cal.CenterY, cal.MinY, cal.MaxY)
}

func normalizeAxis(raw, center, min, max uint16) float64 {
	halfRange := (float64(max) - float64(min)) / 2.0
	if halfRange == 0 {
		// Degenerate calibration; keep the output finite.
		halfRange = 1.0
	}
	return clamp((float64(raw)-float64(center))/halfRange, -1.0, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
