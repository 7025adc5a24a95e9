// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture classifies completed touchpad strokes into cardinal
// swipe directions.
package gesture

import (
	"math"
)

// Direction is the outcome of a classified stroke.
type Direction int

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

const (
	trajectoryCap = 5

	// Base recognition distance in normalized units, defined at the
	// reference sensitivity.
	baseMinDistance      = 0.2
	referenceSensitivity = 2.0
	sensitivityFloor     = 0.1

	// Each direction accepts ±30° around its axis; the gaps between the
	// four 60° cones classify as none.
	coneTolerance = 30.0
)

type point struct {
	x, y float64
}

// Recognizer buffers a short trajectory of touch samples and classifies
// the stroke on release. Classification compares the recorded start point
// to the last buffered point; the buffer is bounded, so very long strokes
// are judged by their tail.
type Recognizer struct {
	inProgress bool
	start      point
	points     []point
}

func NewRecognizer() *Recognizer {
	return &Recognizer{}
}

// Threshold returns the recognition distance for the given sensitivity.
// Higher sensitivity lowers the distance required to trigger a gesture.
func Threshold(sensitivity float64) float64 {
	scale := math.Max(sensitivity, sensitivityFloor) / referenceSensitivity
	return baseMinDistance / scale
}

// Process consumes one normalized sample. It returns a direction other
// than None only on the touch-release edge that completes a stroke.
func (g *Recognizer) Process(nx, ny float64, touched bool, sensitivity float64) Direction {
	p := point{nx, ny}

	switch {
	case !g.inProgress && touched:
		g.start = p
		g.points = g.points[:0]
		g.points = append(g.points, p)
		g.inProgress = true
		return None
	case g.inProgress && touched:
		g.points = append(g.points, p)
		if len(g.points) > trajectoryCap {
			g.points = g.points[1:]
		}
		return None
	case g.inProgress:
		return g.finish(sensitivity)
	default:
		return None
	}
}

func (g *Recognizer) finish(sensitivity float64) Direction {
	dir := None
	if len(g.points) >= 2 {
		dir = classify(g.start, g.points[len(g.points)-1], Threshold(sensitivity))
	}
	g.inProgress = false
	g.points = g.points[:0]
	return dir
}

// classify maps the start→end vector onto a compass direction. Positive Y
// is downward, matching raw touchpad Y growing toward the bottom.
func classify(start, end point, threshold float64) Direction {
	dx := end.x - start.x
	dy := end.y - start.y

	if math.Hypot(dx, dy) < threshold {
		return None
	}

	degrees := math.Atan2(dy, dx) * 180.0 / math.Pi
	if degrees < 0 {
		degrees += 360.0
	}

	switch {
	case degrees >= 360.0-coneTolerance || degrees < coneTolerance:
		return Right
	case degrees >= 90.0-coneTolerance && degrees < 90.0+coneTolerance:
		return Down
	case degrees >= 180.0-coneTolerance && degrees < 180.0+coneTolerance:
		return Left
	case degrees >= 270.0-coneTolerance && degrees < 270.0+coneTolerance:
		return Up
	default:
		return None
	}
}
