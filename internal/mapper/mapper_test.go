// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mapper

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// recorder captures sink commands as readable strings.
type recorder struct {
	calls []string
}

func (r *recorder) MoveMouse(dx, dy int) error {
	r.calls = append(r.calls, fmt.Sprintf("move:%d,%d", dx, dy))
	return nil
}

func (r *recorder) ButtonDown(b MouseButton) error {
	r.calls = append(r.calls, "down:"+b.String())
	return nil
}

func (r *recorder) ButtonUp(b MouseButton) error {
	r.calls = append(r.calls, "up:"+b.String())
	return nil
}

func (r *recorder) Click(b MouseButton) error {
	r.calls = append(r.calls, "click:"+b.String())
	return nil
}

func (r *recorder) Wheel(ticks int) error {
	r.calls = append(r.calls, fmt.Sprintf("wheel:%d", ticks))
	return nil
}

func (r *recorder) HWheel(ticks int) error {
	r.calls = append(r.calls, fmt.Sprintf("hwheel:%d", ticks))
	return nil
}

func (r *recorder) KeyTap(k Key) error {
	r.calls = append(r.calls, "key:"+k.String())
	return nil
}

func (r *recorder) reset() { r.calls = nil }

func newTestMapper() (*Mapper, *config.Store, *recorder) {
	store := config.NewStore()
	rec := &recorder{}
	return New(store, rec), store, rec
}

// centered returns a reading resting at the touchpad center.
func centered() *controller.Reading {
	return &controller.Reading{TouchX: 157, TouchY: 157}
}

// touchAt returns a touched reading at the given raw coordinates.
func touchAt(x, y uint16) *controller.Reading {
	return &controller.Reading{TouchX: x, TouchY: y, Touched: true}
}

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestTriggerLeftButtonEdges(t *testing.T) {
	m, _, rec := newTestMapper()

	r := centered()
	r.Trigger = true
	m.Process(r, t0)
	require.Equal(t, []string{"down:left"}, rec.calls)

	// release inside the debounce window is ignored
	r.Trigger = false
	m.Process(r, t0.Add(20*time.Millisecond))
	assert.Len(t, rec.calls, 1)

	m.Process(r, t0.Add(80*time.Millisecond))
	assert.Equal(t, []string{"down:left", "up:left"}, rec.calls)
}

func TestTriggerPresentationNextSlide(t *testing.T) {
	m, _, rec := newTestMapper()
	m.SetMode(ModePresentation)

	r := centered()
	r.Trigger = true
	m.Process(r, t0)
	r.Trigger = false
	m.Process(r, t0.Add(80*time.Millisecond))

	// key fires on press only
	assert.Equal(t, []string{"key:right"}, rec.calls)
}

func TestPadClickRightButton(t *testing.T) {
	m, _, rec := newTestMapper()

	r := centered()
	r.TouchpadClick = true
	m.Process(r, t0)
	r.TouchpadClick = false
	m.Process(r, t0.Add(80*time.Millisecond))

	assert.Equal(t, []string{"down:right", "up:right"}, rec.calls)
}

func TestPadClickPresentationPrevSlide(t *testing.T) {
	m, _, rec := newTestMapper()
	m.SetMode(ModePresentation)

	r := centered()
	r.TouchpadClick = true
	m.Process(r, t0)

	assert.Equal(t, []string{"key:left"}, rec.calls)
}

func TestBackShortPress(t *testing.T) {
	tests := []struct {
		mode ControlMode
		want []string
	}{
		{ModeMouse, []string{"click:right"}},
		{ModeTouchpad, []string{"click:right"}},
		{ModePresentation, []string{"key:left"}},
		{ModeSettings, nil},
	}
	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			m, _, rec := newTestMapper()
			m.SetMode(tc.mode)

			r := centered()
			r.Back = true
			m.Process(r, t0)
			m.Process(r, t0.Add(100*time.Millisecond))
			r.Back = false
			m.Process(r, t0.Add(200*time.Millisecond))

			assert.Equal(t, tc.want, rec.calls)
			assert.False(t, m.RingActive())
		})
	}
}

func TestBackLongPressCommitsMode(t *testing.T) {
	m, _, rec := newTestMapper()

	var events []Event
	m.OnEvent = func(ev Event) { events = append(events, ev) }

	r := centered()
	r.Back = true
	m.Process(r, t0)
	assert.False(t, m.RingActive())

	// past the hold threshold with a touch at the right edge: sector 90°
	// clockwise from top, i.e. touchpad mode
	sel := touchAt(315, 157)
	sel.Back = true
	m.Process(sel, t0.Add(310*time.Millisecond))
	require.True(t, m.RingActive())

	up := centered()
	m.Process(up, t0.Add(400*time.Millisecond))

	assert.False(t, m.RingActive())
	assert.Equal(t, ModeTouchpad, m.Mode())
	// committing must not also emit the short-press action
	assert.Empty(t, rec.calls)
	require.Len(t, events, 1)
	assert.Equal(t, EventModeChange, events[0].Kind)
	assert.Equal(t, "touchpad", events[0].Mode)
}

func TestBackLongPressDeadZoneIsNoop(t *testing.T) {
	m, _, rec := newTestMapper()

	r := centered()
	r.Back = true
	m.Process(r, t0)

	// touch stays near the center, inside the ring dead zone
	sel := touchAt(170, 157)
	sel.Back = true
	m.Process(sel, t0.Add(310*time.Millisecond))
	require.True(t, m.RingActive())

	m.Process(centered(), t0.Add(400*time.Millisecond))

	assert.Equal(t, ModeMouse, m.Mode())
	assert.Empty(t, rec.calls)
}

func TestRingSuppressesMotionAndGestures(t *testing.T) {
	m, _, rec := newTestMapper()

	r := centered()
	r.Back = true
	m.Process(r, t0)
	held := touchAt(157, 157)
	held.Back = true
	m.Process(held, t0.Add(310*time.Millisecond))
	require.True(t, m.RingActive())
	rec.reset()

	// a fast swipe that would normally scroll and register a gesture
	swipe := touchAt(315, 157)
	swipe.Back = true
	m.Process(swipe, t0.Add(330*time.Millisecond))
	assert.Empty(t, rec.calls)
}

func TestVolumeScrollRepeatsInTouchpadMode(t *testing.T) {
	m, _, rec := newTestMapper()
	m.SetMode(ModeTouchpad)

	r := centered()
	r.VolumeUp = true
	m.Process(r, t0)
	m.Process(r, t0.Add(20*time.Millisecond)) // within debounce, no repeat
	m.Process(r, t0.Add(80*time.Millisecond))
	m.Process(r, t0.Add(160*time.Millisecond))

	assert.Equal(t, []string{"wheel:1", "wheel:1", "wheel:1"}, rec.calls)
}

func TestVolumeKeysInMouseMode(t *testing.T) {
	m, _, rec := newTestMapper()

	r := centered()
	r.VolumeDown = true
	m.Process(r, t0)

	assert.Equal(t, []string{"key:volume-down"}, rec.calls)
}

func TestMouseModeTouchScroll(t *testing.T) {
	m, _, rec := newTestMapper()

	// first touched sample only seeds the position
	m.Process(touchAt(157, 157), t0)
	assert.Empty(t, rec.calls)

	// drag right past the threshold
	m.Process(touchAt(200, 157), t0.Add(20*time.Millisecond))
	assert.Equal(t, []string{"hwheel:1"}, rec.calls)
	rec.reset()

	// drag up (smaller raw y) scrolls up
	m.Process(touchAt(200, 100), t0.Add(40*time.Millisecond))
	assert.Equal(t, []string{"wheel:1"}, rec.calls)
	rec.reset()

	// release resets; a fresh touch seeds again without scrolling
	m.Process(centered(), t0.Add(60*time.Millisecond))
	m.Process(touchAt(315, 157), t0.Add(80*time.Millisecond))
	assert.Empty(t, rec.calls)
}

func TestTouchpadModeCursor(t *testing.T) {
	m, store, rec := newTestMapper()
	m.SetMode(ModeTouchpad)

	require.NoError(t, store.Update(func(s *config.Settings) {
		s.DeadZone = 0
		s.EnableSmoothing = false
		s.EnableAccel = false
	}))

	m.Process(touchAt(157, 157), t0)
	m.Process(touchAt(200, 157), t0.Add(20*time.Millisecond))

	require.Len(t, rec.calls, 1)
	assert.Regexp(t, `^move:\d+,0$`, rec.calls[0])
}

func TestGestureSwipeRightTapsAlt(t *testing.T) {
	m, _, rec := newTestMapper()
	m.SetMode(ModePresentation) // no cursor mapping, gestures still active

	var events []Event
	m.OnEvent = func(ev Event) { events = append(events, ev) }

	m.Process(touchAt(157, 157), t0)
	m.Process(touchAt(315, 157), t0.Add(20*time.Millisecond))
	m.Process(centered(), t0.Add(40*time.Millisecond))

	assert.Equal(t, []string{"key:alt"}, rec.calls)
	require.Len(t, events, 1)
	assert.Equal(t, EventGesture, events[0].Kind)
	assert.Equal(t, "right", events[0].Gesture)
}

func TestGestureSwipeUpScrolls(t *testing.T) {
	m, _, rec := newTestMapper()
	m.SetMode(ModePresentation)

	m.Process(touchAt(157, 315), t0)
	m.Process(touchAt(157, 0), t0.Add(20*time.Millisecond))
	m.Process(centered(), t0.Add(40*time.Millisecond))

	assert.Equal(t, []string{"wheel:1"}, rec.calls)
}

func TestDisabledButtonsSuppressEverything(t *testing.T) {
	m, store, rec := newTestMapper()
	require.NoError(t, store.Update(func(s *config.Settings) {
		s.EnableButtons = false
	}))

	r := centered()
	r.Trigger = true
	r.VolumeUp = true
	m.Process(r, t0)

	assert.Empty(t, rec.calls)
}

func TestDisabledGesturesSuppressSwipes(t *testing.T) {
	m, store, rec := newTestMapper()
	m.SetMode(ModePresentation)
	require.NoError(t, store.Update(func(s *config.Settings) {
		s.EnableGestures = false
	}))

	m.Process(touchAt(157, 157), t0)
	m.Process(touchAt(315, 157), t0.Add(20*time.Millisecond))
	m.Process(centered(), t0.Add(40*time.Millisecond))

	assert.Empty(t, rec.calls)
}

func TestShakeTelemetryCooldown(t *testing.T) {
	m, _, _ := newTestMapper()

	var events []Event
	m.OnEvent = func(ev Event) { events = append(events, ev) }

	r := centered()
	r.AccelX, r.AccelY, r.AccelZ = 2.0, 2.0, 2.0 // magnitude ~3.46g

	m.Process(r, t0)
	m.Process(r, t0.Add(100*time.Millisecond))
	m.Process(r, t0.Add(600*time.Millisecond))

	shakes := 0
	for _, ev := range events {
		if ev.Kind == EventShake {
			shakes++
		}
	}
	assert.Equal(t, 2, shakes)
}
