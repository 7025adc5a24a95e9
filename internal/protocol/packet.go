// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol implements the Gear VR controller wire format: the
// 60-byte sensor notification packet and the 2-byte command channel.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// SensorPacketLen is the length of a sensor-data notification.
const SensorPacketLen = 60

// IMU scale constants for the 16-bit integer encoding.
const (
	accelScale = 1.0 / 4096.0 // ±8g range, 13-bit resolution
	gyroScale  = 1.0 / 900.0
	magScale   = 1.0 / 1000.0
)

// Raw 16-bit values at or beyond this magnitude are assumed to be part of
// the alternate 32-bit float encoding some firmware revisions emit.
const rawSanityBound = 32000

// ErrNotSensorData marks a 2-byte command acknowledgment arriving on the
// notification path. It is protocol noise, not a decode failure: callers
// drop these packets silently.
var ErrNotSensorData = errors.New("protocol: command acknowledgment, not sensor data")

// Decode parses a notification payload into a Reading.
//
// Packet layout (all little-endian):
//
//	[0:4]   timestamp, u32 device ticks
//	[4:6]   temperature, i16
//	[6:8]   reserved
//	[8:14]  accel X/Y/Z, i16 each
//	[14:20] gyro X/Y/Z, i16 each
//	[20:26] mag X/Y/Z, i16 each
//	[26:54] additional IMU samples, unused
//	[54:56] touchpad X, u16, 0-315
//	[56:58] touchpad Y, u16, 0-315
//	[58]    button bitmask
//	[59]    touchpad touched flag
func Decode(buf []byte) (controller.Reading, error) {
	if len(buf) == 2 {
		return controller.Reading{}, ErrNotSensorData
	}
	if len(buf) != SensorPacketLen {
		return controller.Reading{}, fmt.Errorf("protocol: invalid packet size %d (want %d)", len(buf), SensorPacketLen)
	}

	r := controller.Reading{
		Timestamp:   binary.LittleEndian.Uint32(buf[0:4]),
		Temperature: int16(binary.LittleEndian.Uint16(buf[4:6])),
		Raw:         append([]byte(nil), buf...),
	}

	rawAx := int16(binary.LittleEndian.Uint16(buf[8:10]))
	rawAy := int16(binary.LittleEndian.Uint16(buf[10:12]))
	rawAz := int16(binary.LittleEndian.Uint16(buf[12:14]))
	rawGx := int16(binary.LittleEndian.Uint16(buf[14:16]))
	rawGy := int16(binary.LittleEndian.Uint16(buf[16:18]))
	rawGz := int16(binary.LittleEndian.Uint16(buf[18:20]))
	rawMx := int16(binary.LittleEndian.Uint16(buf[20:22]))
	rawMy := int16(binary.LittleEndian.Uint16(buf[22:24]))
	rawMz := int16(binary.LittleEndian.Uint16(buf[24:26]))

	if abs16(rawAx) < rawSanityBound && abs16(rawAy) < rawSanityBound && abs16(rawAz) < rawSanityBound {
		// Scaled-integer firmware format.
		r.AccelX = float64(rawAx) * accelScale
		r.AccelY = float64(rawAy) * accelScale
		r.AccelZ = float64(rawAz) * accelScale
		r.GyroX = float64(rawGx) * gyroScale
		r.GyroY = float64(rawGy) * gyroScale
		r.GyroZ = float64(rawGz) * gyroScale
	} else {
		// Alternate firmware emits 32-bit floats at overlapping offsets:
		// accel at [4:16], gyro at [16:28].
		r.AccelX = float64(leFloat32(buf[4:8]))
		r.AccelY = float64(leFloat32(buf[8:12]))
		r.AccelZ = float64(leFloat32(buf[12:16]))
		r.GyroX = float64(leFloat32(buf[16:20]))
		r.GyroY = float64(leFloat32(buf[20:24]))
		r.GyroZ = float64(leFloat32(buf[24:28]))
	}

	r.MagX = float64(rawMx) * magScale
	r.MagY = float64(rawMy) * magScale
	r.MagZ = float64(rawMz) * magScale

	r.TouchX = binary.LittleEndian.Uint16(buf[54:56])
	r.TouchY = binary.LittleEndian.Uint16(buf[56:58])

	buttons := buf[58]
	r.Trigger = buttons&0x01 != 0
	r.TouchpadClick = buttons&0x02 != 0
	r.Back = buttons&0x04 != 0
	r.Home = buttons&0x08 != 0
	r.VolumeUp = buttons&0x10 != 0
	r.VolumeDown = buttons&0x20 != 0

	r.Touched = buf[59] != 0

	return r, nil
}

func abs16(v int16) int {
	if v < 0 {
		return -int(v)
	}
	return int(v)
}

func leFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
