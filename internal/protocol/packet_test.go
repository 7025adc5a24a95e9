package protocol

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPacket constructs a 60-byte sensor packet with the given field values.
func buildPacket(ts uint32, temp int16, accel, gyro, mag [3]int16, tx, ty uint16, buttons byte, touched byte) []byte {
	buf := make([]byte, SensorPacketLen)
	binary.LittleEndian.PutUint32(buf[0:4], ts)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(temp))
	for i, v := range accel {
		binary.LittleEndian.PutUint16(buf[8+2*i:], uint16(v))
	}
	for i, v := range gyro {
		binary.LittleEndian.PutUint16(buf[14+2*i:], uint16(v))
	}
	for i, v := range mag {
		binary.LittleEndian.PutUint16(buf[20+2*i:], uint16(v))
	}
	binary.LittleEndian.PutUint16(buf[54:56], tx)
	binary.LittleEndian.PutUint16(buf[56:58], ty)
	buf[58] = buttons
	buf[59] = touched
	return buf
}

func TestDecodeRoundTrip(t *testing.T) {
	buf := buildPacket(
		123456, -17,
		[3]int16{4096, -2048, 1024},
		[3]int16{900, -450, 225},
		[3]int16{1000, -500, 250},
		200, 157,
		0x01|0x04|0x20, // trigger, back, volume down
		1,
	)

	r, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, uint32(123456), r.Timestamp)
	assert.Equal(t, int16(-17), r.Temperature)

	assert.InDelta(t, 1.0, r.AccelX, 1e-9)
	assert.InDelta(t, -0.5, r.AccelY, 1e-9)
	assert.InDelta(t, 0.25, r.AccelZ, 1e-9)

	assert.InDelta(t, 1.0, r.GyroX, 1e-9)
	assert.InDelta(t, -0.5, r.GyroY, 1e-9)
	assert.InDelta(t, 0.25, r.GyroZ, 1e-9)

	assert.InDelta(t, 1.0, r.MagX, 1e-9)
	assert.InDelta(t, -0.5, r.MagY, 1e-9)
	assert.InDelta(t, 0.25, r.MagZ, 1e-9)

	assert.Equal(t, uint16(200), r.TouchX)
	assert.Equal(t, uint16(157), r.TouchY)

	assert.True(t, r.Trigger)
	assert.False(t, r.TouchpadClick)
	assert.True(t, r.Back)
	assert.False(t, r.Home)
	assert.False(t, r.VolumeUp)
	assert.True(t, r.VolumeDown)
	assert.True(t, r.Touched)

	assert.Equal(t, buf, r.Raw)

	// Normalized fields stay zero until the normalizer runs.
	assert.Zero(t, r.NormX)
	assert.Zero(t, r.NormY)
}

func TestDecodeFloatFallback(t *testing.T) {
	// Push accel X past the sanity bound so the decoder reinterprets the
	// span as little-endian float32s at the overlapping offsets.
	buf := buildPacket(1, 0, [3]int16{32500, 0, 0}, [3]int16{0, 0, 0}, [3]int16{0, 0, 0}, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(0.5))    // accel X
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(-2.0)) // accel Z
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(1.5))  // gyro X

	// Keep accel Y bytes [8:12] beyond the bound so the branch still trips.
	binary.LittleEndian.PutUint16(buf[8:10], uint16(32500))

	r, err := Decode(buf)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, r.AccelX, 1e-6)
	assert.InDelta(t, -2.0, r.AccelZ, 1e-6)
	assert.InDelta(t, 1.5, r.GyroX, 1e-6)
}

func TestDecodeCommandAck(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x00})
	assert.ErrorIs(t, err, ErrNotSensorData)
}

func TestDecodeBadLength(t *testing.T) {
	for _, n := range []int{0, 1, 3, 59, 61, 128} {
		_, err := Decode(make([]byte, n))
		require.Error(t, err, "length %d", n)
		assert.NotErrorIs(t, err, ErrNotSensorData, "length %d", n)
	}
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	buf := buildPacket(7, 0, [3]int16{1, 2, 3}, [3]int16{4, 5, 6}, [3]int16{7, 8, 9}, 10, 11, 0, 0)
	r, err := Decode(buf)
	require.NoError(t, err)

	buf[0] = 0xFF
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(r.Raw[0:4]))
}

func TestCommandBytes(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00}, CmdOff.Bytes())
	assert.Equal(t, []byte{0x01, 0x00}, CmdSensorMode.Bytes())
	assert.Equal(t, []byte{0x08, 0x00}, CmdVRModeEnable.Bytes())
	assert.Equal(t, []byte{0x0A, 0x02}, CmdOptimizeConnection.Bytes())
}
