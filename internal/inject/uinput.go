// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package inject delivers mapper commands to the OS through virtual
// uinput devices. Requires write access to /dev/uinput.
package inject

import (
	"fmt"

	"github.com/bendahl/uinput"

	"github.com/relabs-tech/gearvr_bridge/internal/mapper"
)

const uinputPath = "/dev/uinput"

// Device is a virtual mouse + keyboard pair implementing mapper.Sink.
type Device struct {
	mouse    uinput.Mouse
	keyboard uinput.Keyboard
}

var _ mapper.Sink = (*Device)(nil)

// Open creates the virtual devices. name is the device label shown by
// the kernel input subsystem.
func Open(name string) (*Device, error) {
	mouse, err := uinput.CreateMouse(uinputPath, []byte(name))
	if err != nil {
		return nil, fmt.Errorf("inject: create mouse: %w", err)
	}
	keyboard, err := uinput.CreateKeyboard(uinputPath, []byte(name+" keyboard"))
	if err != nil {
		mouse.Close()
		return nil, fmt.Errorf("inject: create keyboard: %w", err)
	}
	return &Device{mouse: mouse, keyboard: keyboard}, nil
}

func (d *Device) MoveMouse(dx, dy int) error {
	return d.mouse.Move(int32(dx), int32(dy))
}

func (d *Device) ButtonDown(b mapper.MouseButton) error {
	if b == mapper.MouseRight {
		return d.mouse.RightPress()
	}
	return d.mouse.LeftPress()
}

func (d *Device) ButtonUp(b mapper.MouseButton) error {
	if b == mapper.MouseRight {
		return d.mouse.RightRelease()
	}
	return d.mouse.LeftRelease()
}

func (d *Device) Click(b mapper.MouseButton) error {
	if b == mapper.MouseRight {
		return d.mouse.RightClick()
	}
	return d.mouse.LeftClick()
}

func (d *Device) Wheel(ticks int) error {
	return d.mouse.Wheel(false, int32(ticks))
}

func (d *Device) HWheel(ticks int) error {
	return d.mouse.Wheel(true, int32(ticks))
}

func (d *Device) KeyTap(k mapper.Key) error {
	code, err := keyCode(k)
	if err != nil {
		return err
	}
	return d.keyboard.KeyPress(code)
}

func (d *Device) Close() error {
	kerr := d.keyboard.Close()
	merr := d.mouse.Close()
	if merr != nil {
		return merr
	}
	return kerr
}

func keyCode(k mapper.Key) (int, error) {
	switch k {
	case mapper.KeyLeft:
		return uinput.KeyLeft, nil
	case mapper.KeyRight:
		return uinput.KeyRight, nil
	case mapper.KeyEscape:
		return uinput.KeyEsc, nil
	case mapper.KeyVolumeUp:
		return uinput.KeyVolumeup, nil
	case mapper.KeyVolumeDown:
		return uinput.KeyVolumedown, nil
	case mapper.KeyLeftAlt:
		return uinput.KeyLeftalt, nil
	default:
		return 0, fmt.Errorf("inject: unmapped key %d", int(k))
	}
}
