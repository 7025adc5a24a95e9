// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gearvr_bridge/internal/controller"
)

// UART sniffer frame: two magic bytes, a length byte, then the raw
// notification payload.
const (
	frameMagic1 = 0xA5
	frameMagic2 = 0x5A
)

// SerialFeed replays controller notifications captured by a UART sniffer
// board, so the whole pipeline runs without a radio. Implements
// controller.PacketSource.
type SerialFeed struct {
	port    io.ReadWriteCloser
	packets chan []byte
	status  chan controller.ConnectionStatus
	closing chan struct{}
}

var _ controller.PacketSource = (*SerialFeed)(nil)

// OpenSerialFeed opens the port and starts the frame reader.
func OpenSerialFeed(portName string, baud int) (*SerialFeed, error) {
	opts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		ParityMode:      serial.PARITY_NONE,
		MinimumReadSize: 1,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Printf("serial: port %s open at %d baud", portName, baud)

	f := &SerialFeed{
		port:    port,
		packets: make(chan []byte, 64),
		status:  make(chan controller.ConnectionStatus, 8),
		closing: make(chan struct{}),
	}
	go f.run()
	return f, nil
}

func (f *SerialFeed) Packets() <-chan []byte {
	return f.packets
}

func (f *SerialFeed) Status() <-chan controller.ConnectionStatus {
	return f.status
}

func (f *SerialFeed) Close() error {
	close(f.closing)
	return f.port.Close()
}

func (f *SerialFeed) run() {
	defer close(f.packets)
	f.setStatus(controller.StatusConnected)

	reader := bufio.NewReader(f.port)
	for {
		frame, err := readFrame(reader)
		if err != nil {
			select {
			case <-f.closing:
			default:
				log.Printf("serial: read: %v", err)
				f.setStatus(controller.StatusError)
			}
			f.setStatus(controller.StatusDisconnected)
			return
		}
		select {
		case f.packets <- frame:
		default:
			// consumer stalled, drop the frame
		}
	}
}

// readFrame scans for the magic pair and returns the framed payload.
// Stray bytes between frames are skipped silently.
func readFrame(r *bufio.Reader) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != frameMagic1 {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != frameMagic2 {
			continue
		}
		length, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		frame := make([]byte, int(length))
		if _, err := io.ReadFull(r, frame); err != nil {
			return nil, err
		}
		return frame, nil
	}
}

func (f *SerialFeed) setStatus(s controller.ConnectionStatus) {
	select {
	case f.status <- s:
	default:
	}
}
