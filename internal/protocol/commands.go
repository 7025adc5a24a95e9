// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package protocol

import "time"

// BLE service and characteristic UUIDs. The service UUID spells
// "OculusThreemote" in ASCII.
const (
	ServiceUUID     = "4f63756c-7573-2054-6872-65656d6f7465"
	DataCharUUID    = "c8c51726-81bc-483b-a052-f7a14ea3d281"
	CommandCharUUID = "c8c51726-81bc-483b-a052-f7a14ea3d282"
)

// Command is a 2-byte control message written to the command characteristic.
type Command uint8

const (
	CmdOff Command = iota
	CmdSensorMode
	CmdFirmwareUpgrade
	CmdCalibration
	CmdKeepAlive
	CmdSettingMode
	CmdLPMEnable
	CmdLPMDisable
	CmdVRModeEnable
	CmdOptimizeConnection
)

// Bytes returns the wire form of the command.
func (c Command) Bytes() []byte {
	switch c {
	case CmdOff:
		return []byte{0x00, 0x00}
	case CmdSensorMode:
		return []byte{0x01, 0x00}
	case CmdFirmwareUpgrade:
		return []byte{0x02, 0x00}
	case CmdCalibration:
		return []byte{0x03, 0x00}
	case CmdKeepAlive:
		return []byte{0x04, 0x00}
	case CmdSettingMode:
		return []byte{0x05, 0x00}
	case CmdLPMEnable:
		return []byte{0x06, 0x00}
	case CmdLPMDisable:
		return []byte{0x07, 0x00}
	case CmdVRModeEnable:
		return []byte{0x08, 0x00}
	case CmdOptimizeConnection:
		return []byte{0x0A, 0x02}
	default:
		return []byte{0x00, 0x00}
	}
}

// InitStep is one entry of the controller bring-up sequence.
type InitStep struct {
	Cmd    Command
	Repeat int
}

// InitSequence puts the controller into high-rate VR sensor mode. Some
// commands only take effect after several writes, hence the repeats.
var InitSequence = []InitStep{
	{CmdSensorMode, 3},
	{CmdLPMEnable, 1},
	{CmdLPMDisable, 1},
	{CmdVRModeEnable, 3},
}

// CommandDelay is the pause between consecutive command writes.
const CommandDelay = 50 * time.Millisecond

// KeepAliveInterval keeps the notification stream running; without
// periodic keep-alives the controller drops back to idle.
const KeepAliveInterval = 10 * time.Second
