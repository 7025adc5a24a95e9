package touchpad

import (
	"errors"

	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// Session accumulates touched samples during a touchpad calibration run
// and derives the bounds from the observed extrema. The accumulator is
// unbounded while active and cleared on completion.
type Session struct {
	count                  int
	minX, maxX, minY, maxY uint16
}

func NewSession() *Session {
	return &Session{
		minX: ^uint16(0),
		minY: ^uint16(0),
	}
}

// Add records one touched raw sample.
func (s *Session) Add(x, y uint16) {
	s.count++
	if x < s.minX {
		s.minX = x
	}
	if x > s.maxX {
		s.maxX = x
	}
	if y < s.minY {
		s.minY = y
	}
	if y > s.maxY {
		s.maxY = y
	}
}

// Count reports how many samples have been collected.
func (s *Session) Count() int {
	return s.count
}

// Result computes the calibration from the collected extrema, with the
// center at the midpoint of each axis, and resets the session.
func (s *Session) Result() (controller.TouchpadCalibration, error) {
	if s.count == 0 {
		return controller.TouchpadCalibration{}, errors.New("touchpad: calibration session has no samples")
	}
	cal := controller.TouchpadCalibration{
		MinX:    s.minX,
		MaxX:    s.maxX,
		MinY:    s.minY,
		MaxY:    s.maxY,
		CenterX: s.minX + (s.maxX-s.minX)/2,
		CenterY: s.minY + (s.maxY-s.minY)/2,
	}
	*s = *NewSession()
	return cal, nil
}
