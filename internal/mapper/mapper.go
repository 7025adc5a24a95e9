// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mapper fans decoded controller readings out into abstract input
// commands. It owns the control mode, the per-button debounce state and
// the mode selection ring, and drives the touchpad, imu and gesture
// engines according to the active mode.
package mapper

import (
	"log"
	"time"

	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
	"github.com/relabs-tech/gearvr_bridge/internal/gesture"
	"github.com/relabs-tech/gearvr_bridge/internal/imu"
	"github.com/relabs-tech/gearvr_bridge/internal/touchpad"
)

// ControlMode selects which dispatch table a reading runs through.
type ControlMode int

const (
	ModeMouse ControlMode = iota
	ModeTouchpad
	ModePresentation
	ModeSettings
)

func (m ControlMode) String() string {
	switch m {
	case ModeMouse:
		return "mouse"
	case ModeTouchpad:
		return "touchpad"
	case ModePresentation:
		return "presentation"
	case ModeSettings:
		return "settings"
	default:
		return "unknown"
	}
}

const (
	// Accepted button transitions must be at least this far apart.
	// Volume buttons re-fire at this interval while held.
	debounceInterval = 50 * time.Millisecond

	// Holding back past this shows the mode ring instead of emitting the
	// short-press action.
	menuHoldThreshold = 300 * time.Millisecond

	// Minimum normalized touchpad delta that produces a scroll tick in
	// mouse mode.
	scrollThreshold = 0.05

	shakeCooldown = 500 * time.Millisecond
	tiltRepeat    = 250 * time.Millisecond
)

// EventKind tags telemetry events emitted alongside sink commands.
type EventKind int

const (
	EventModeChange EventKind = iota
	EventGesture
	EventShake
	EventTilt
)

// Event is a telemetry notification. Mode, Gesture and Ticks are set
// depending on Kind.
type Event struct {
	Kind    EventKind `json:"kind"`
	Mode    string    `json:"mode,omitempty"`
	Gesture string    `json:"gesture,omitempty"`
	Ticks   int       `json:"ticks,omitempty"`
}

// buttonState is the debounce record for one physical button.
type buttonState struct {
	pressed    bool
	lastChange time.Time
}

// edge accepts a press/release transition when the state changed and the
// debounce interval has elapsed.
func (b *buttonState) edge(cur bool, now time.Time) (pressed, changed bool) {
	if cur == b.pressed {
		return false, false
	}
	if !b.lastChange.IsZero() && now.Sub(b.lastChange) <= debounceInterval {
		return false, false
	}
	b.pressed = cur
	b.lastChange = now
	return cur, true
}

// repeat fires at the debounce interval for as long as the button is held.
func (b *buttonState) repeat(cur bool, now time.Time) bool {
	b.pressed = cur
	if !cur {
		return false
	}
	if !b.lastChange.IsZero() && now.Sub(b.lastChange) <= debounceInterval {
		return false
	}
	b.lastChange = now
	return true
}

// Mapper turns readings into sink commands. Not safe for concurrent use;
// the bridge feeds it from a single goroutine.
type Mapper struct {
	store *config.Store
	sink  Sink

	pointer  *touchpad.PointerEngine
	motion   *imu.Engine
	gestures *gesture.Recognizer
	ring     *modeRing

	mode ControlMode

	trigger  buttonState
	padClick buttonState
	home     buttonState
	volUp    buttonState
	volDown  buttonState

	// backHoldStart is zero while back is up; backTapAt debounces the
	// short-press action.
	backHoldStart time.Time
	backTapAt     time.Time

	scrollHasLast            bool
	scrollLastX, scrollLastY float64

	lastShake time.Time
	lastTilt  time.Time

	// OnEvent, when set, receives telemetry events. Called synchronously
	// from Process.
	OnEvent func(Event)
}

func New(store *config.Store, sink Sink) *Mapper {
	return &Mapper{
		store:    store,
		sink:     sink,
		pointer:  touchpad.NewPointerEngine(),
		motion:   imu.NewEngine(),
		gestures: gesture.NewRecognizer(),
		ring:     newModeRing(),
	}
}

// Mode returns the active control mode.
func (m *Mapper) Mode() ControlMode {
	return m.mode
}

// SetMode switches the control mode and clears pointer state so the next
// touch starts fresh.
func (m *Mapper) SetMode(mode ControlMode) {
	if mode == m.mode {
		return
	}
	m.mode = mode
	m.pointer.Reset()
	m.scrollHasLast = false
	m.emit(Event{Kind: EventModeChange, Mode: mode.String()})
}

// Motion exposes the air-mouse engine for calibration control.
func (m *Mapper) Motion() *imu.Engine {
	return m.motion
}

// RingActive reports whether the mode selection overlay is showing.
func (m *Mapper) RingActive() bool {
	return m.ring.active
}

// Process runs one reading through normalization, the active mode's
// dispatch table and the button map. now is injected for testability.
func (m *Mapper) Process(r *controller.Reading, now time.Time) {
	cfg := m.store.Snapshot()
	touchpad.Normalize(r, cfg.Calibration)

	if !m.ring.active {
		m.dispatchMotion(r, cfg)
		if cfg.EnableGestures {
			if dir := m.gestures.Process(r.NormX, r.NormY, r.Touched, cfg.MouseSensitivity); dir != gesture.None {
				m.dispatchGesture(dir)
			}
		}
	}

	if cfg.EnableButtons {
		m.handleTrigger(r.Trigger, now)
		m.handlePadClick(r.TouchpadClick, now)
		m.handleBack(r, now)
		m.handleVolume(r.VolumeUp, r.VolumeDown, now)
		m.home.edge(r.Home, now) // tracked, no default action
	}

	m.emitMotionTelemetry(r, now)
}

func (m *Mapper) dispatchMotion(r *controller.Reading, cfg config.Settings) {
	switch m.mode {
	case ModeMouse:
		if dx, dy, ok := m.motion.Delta(r, imu.Tuning{
			Sensitivity: cfg.MouseSensitivity,
			Axes: imu.AxisMap{
				Swap:    cfg.GyroSwapAxes,
				InvertX: cfg.GyroInvertX,
				InvertY: cfg.GyroInvertY,
			},
		}); ok {
			m.do(m.sink.MoveMouse(dx, dy))
		}
		if cfg.EnableTouchpad {
			m.touchScroll(r)
		}

	case ModeTouchpad:
		if cfg.EnableTouchpad {
			pmode := touchpad.ModeTrackpad
			if cfg.EdgeJoystick {
				pmode = touchpad.ModeHybrid
			}
			if dx, dy, ok := m.pointer.Update(pmode, r.NormX, r.NormY, r.Touched, touchpad.Tuning{
				Sensitivity:       cfg.MouseSensitivity,
				DeadZone:          cfg.DeadZone,
				Smoothing:         cfg.EnableSmoothing,
				SmoothingWindow:   cfg.SmoothingWindow,
				Acceleration:      cfg.EnableAccel,
				AccelerationPower: cfg.AccelPower,
			}); ok {
				m.do(m.sink.MoveMouse(dx, dy))
			}
		}

	case ModePresentation, ModeSettings:
		// no continuous mapping
	}
}

// touchScroll converts touchpad drags into scroll ticks while in mouse
// mode. Drag down scrolls down, drag right scrolls right.
func (m *Mapper) touchScroll(r *controller.Reading) {
	if !r.Touched {
		m.scrollHasLast = false
		return
	}
	if m.scrollHasLast {
		dx := r.NormX - m.scrollLastX
		dy := r.NormY - m.scrollLastY
		if dy > scrollThreshold {
			m.do(m.sink.Wheel(-1))
		} else if dy < -scrollThreshold {
			m.do(m.sink.Wheel(1))
		}
		if dx > scrollThreshold {
			m.do(m.sink.HWheel(1))
		} else if dx < -scrollThreshold {
			m.do(m.sink.HWheel(-1))
		}
	}
	m.scrollHasLast = true
	m.scrollLastX = r.NormX
	m.scrollLastY = r.NormY
}

func (m *Mapper) dispatchGesture(dir gesture.Direction) {
	switch dir {
	case gesture.Up:
		m.do(m.sink.Wheel(1))
	case gesture.Down:
		m.do(m.sink.Wheel(-1))
	case gesture.Left, gesture.Right:
		m.do(m.sink.KeyTap(KeyLeftAlt))
	}
	log.Printf("mapper: gesture %s", dir)
	m.emit(Event{Kind: EventGesture, Gesture: dir.String()})
}

func (m *Mapper) handleTrigger(cur bool, now time.Time) {
	pressed, changed := m.trigger.edge(cur, now)
	if !changed {
		return
	}
	switch m.mode {
	case ModeMouse, ModeTouchpad:
		if pressed {
			m.do(m.sink.ButtonDown(MouseLeft))
		} else {
			m.do(m.sink.ButtonUp(MouseLeft))
		}
	case ModePresentation:
		if pressed {
			m.do(m.sink.KeyTap(KeyRight))
		}
	}
}

func (m *Mapper) handlePadClick(cur bool, now time.Time) {
	pressed, changed := m.padClick.edge(cur, now)
	if !changed {
		return
	}
	switch m.mode {
	case ModeMouse, ModeTouchpad:
		if pressed {
			m.do(m.sink.ButtonDown(MouseRight))
		} else {
			m.do(m.sink.ButtonUp(MouseRight))
		}
	case ModePresentation:
		if pressed {
			m.do(m.sink.KeyTap(KeyLeft))
		}
	}
}

// handleBack implements the long-press mode ring: held past the threshold
// the ring shows and touchpad motion selects a sector; release commits
// the hovered mode. A short press emits the mode's normal back action.
func (m *Mapper) handleBack(r *controller.Reading, now time.Time) {
	if r.Back {
		if m.backHoldStart.IsZero() {
			m.backHoldStart = now
			return
		}
		if !m.ring.active && now.Sub(m.backHoldStart) >= menuHoldThreshold {
			m.ring.show()
			log.Printf("mapper: mode ring shown")
		}
		if m.ring.active && r.Touched {
			m.ring.updateSelection(r.NormX, r.NormY)
		}
		return
	}

	if m.backHoldStart.IsZero() {
		return
	}
	held := now.Sub(m.backHoldStart)
	m.backHoldStart = time.Time{}

	if m.ring.active {
		if mode, ok := m.ring.hide(); ok {
			m.SetMode(mode)
			log.Printf("mapper: mode %s", mode)
		}
		return
	}
	if held >= menuHoldThreshold {
		return
	}
	if !m.backTapAt.IsZero() && now.Sub(m.backTapAt) <= debounceInterval {
		return
	}
	m.backTapAt = now
	switch m.mode {
	case ModeMouse, ModeTouchpad:
		m.do(m.sink.Click(MouseRight))
	case ModePresentation:
		m.do(m.sink.KeyTap(KeyLeft))
	}
}

func (m *Mapper) handleVolume(up, down bool, now time.Time) {
	if m.volUp.repeat(up, now) {
		switch m.mode {
		case ModeTouchpad:
			m.do(m.sink.Wheel(1))
		case ModeMouse, ModePresentation:
			m.do(m.sink.KeyTap(KeyVolumeUp))
		}
	}
	if m.volDown.repeat(down, now) {
		switch m.mode {
		case ModeTouchpad:
			m.do(m.sink.Wheel(-1))
		case ModeMouse, ModePresentation:
			m.do(m.sink.KeyTap(KeyVolumeDown))
		}
	}
}

// emitMotionTelemetry reports shake and tilt without mapping them to
// input; consumers watch the event stream.
func (m *Mapper) emitMotionTelemetry(r *controller.Reading, now time.Time) {
	if imu.DetectShake(r) && (m.lastShake.IsZero() || now.Sub(m.lastShake) >= shakeCooldown) {
		m.lastShake = now
		m.emit(Event{Kind: EventShake})
	}
	if ticks, ok := imu.TiltScroll(r); ok {
		if m.lastTilt.IsZero() || now.Sub(m.lastTilt) >= tiltRepeat {
			m.lastTilt = now
			m.emit(Event{Kind: EventTilt, Ticks: ticks})
		}
	}
}

func (m *Mapper) emit(ev Event) {
	if m.OnEvent != nil {
		m.OnEvent(ev)
	}
}

func (m *Mapper) do(err error) {
	if err != nil {
		log.Printf("mapper: sink: %v", err)
	}
}
