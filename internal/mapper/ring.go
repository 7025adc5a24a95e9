// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mapper

import "math"

const (
	// Touch positions closer to the pad center than this radius leave the
	// current ring selection untouched.
	ringDeadZone = 0.3

	ringSectorHalfWidth = math.Pi / 4
)

// ringOrder lists the selectable modes clockwise starting at the top of
// the touchpad.
var ringOrder = [4]ControlMode{ModeMouse, ModeTouchpad, ModePresentation, ModeSettings}

// modeRing is the radial mode selector shown while the back button is
// held. Sectors are laid out clockwise from the top: mouse, touchpad,
// presentation, settings.
type modeRing struct {
	active   bool
	selected int
}

func newModeRing() *modeRing {
	return &modeRing{selected: -1}
}

func (r *modeRing) show() {
	r.active = true
	r.selected = -1
}

// updateSelection maps a normalized touch position to a ring sector.
// Positions inside the dead zone keep the previous selection so a brief
// lift-and-retouch near the center does not clear it.
func (r *modeRing) updateSelection(nx, ny float64) {
	if !r.active {
		return
	}
	if math.Hypot(nx, ny) < ringDeadZone {
		return
	}
	angle := math.Atan2(ny, nx)
	for i := range ringOrder {
		center := -math.Pi/2 + float64(i)*math.Pi/2
		d := math.Abs(angleDiff(angle, center))
		if d <= ringSectorHalfWidth {
			r.selected = i
			return
		}
	}
}

// hide dismisses the ring and reports the committed mode, if any.
func (r *modeRing) hide() (ControlMode, bool) {
	sel := r.selected
	r.active = false
	r.selected = -1
	if sel < 0 {
		return 0, false
	}
	return ringOrder[sel], true
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}
