// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFrameSkipsStrayBytes(t *testing.T) {
	payload := bytes.Repeat([]byte{0xEE}, 60)

	var buf bytes.Buffer
	// noise, a lone first magic byte, then a real frame
	buf.Write([]byte{0x00, 0x42, frameMagic1, 0x00, frameMagic1, frameMagic2, byte(len(payload))})
	buf.Write(payload)

	frame, err := readFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, payload, frame)
}

func TestReadFrameConsecutive(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{frameMagic1, frameMagic2, 2, 0x01, 0x00})
	buf.Write([]byte{frameMagic1, frameMagic2, 3, 0xAA, 0xBB, 0xCC})

	r := bufio.NewReader(&buf)

	first, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, first)

	second, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, second)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{frameMagic1, frameMagic2, 60, 0x01, 0x02})

	_, err := readFrame(bufio.NewReader(&buf))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrameEmptyStream(t *testing.T) {
	_, err := readFrame(bufio.NewReader(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, io.EOF)
}
