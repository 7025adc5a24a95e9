// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ble connects to the controller over Bluetooth LE and streams
// sensor notification payloads. It owns scanning, the init command
// sequence, keep-alives and reconnection; consumers only see the
// controller.PacketSource interface.
package ble

import (
	"context"
	"fmt"
	"log"
	"time"

	goble "github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
	"github.com/relabs-tech/gearvr_bridge/internal/protocol"
)

const (
	packetBuffer = 64
	scanTimeout  = 30 * time.Second
)

// Transport is a BLE central session with auto-reconnect.
type Transport struct {
	store   *config.Store
	packets chan []byte
	status  chan controller.ConnectionStatus
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ controller.PacketSource = (*Transport)(nil)

func New(store *config.Store) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		store:   store,
		packets: make(chan []byte, packetBuffer),
		status:  make(chan controller.ConnectionStatus, 8),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start opens the HCI device and launches the connect loop. The packets
// channel closes when the loop gives up or Close is called.
func (t *Transport) Start() error {
	dev, err := linux.NewDevice()
	if err != nil {
		return fmt.Errorf("ble: open hci device: %w", err)
	}
	goble.SetDefaultDevice(dev)
	go t.run()
	return nil
}

func (t *Transport) Packets() <-chan []byte {
	return t.packets
}

func (t *Transport) Status() <-chan controller.ConnectionStatus {
	return t.status
}

func (t *Transport) Close() error {
	t.cancel()
	<-t.done
	return nil
}

func (t *Transport) run() {
	defer close(t.done)
	defer close(t.packets)

	attempts := 0
	for {
		if t.ctx.Err() != nil {
			return
		}
		cfg := t.store.Snapshot()
		t.setStatus(controller.StatusConnecting)

		connected, err := t.session(cfg)
		if t.ctx.Err() != nil {
			t.setStatus(controller.StatusDisconnected)
			return
		}
		if connected {
			attempts = 0
		} else {
			attempts++
		}
		if err != nil {
			log.Printf("ble: %v", err)
			t.setStatus(controller.StatusError)
		}
		t.setStatus(controller.StatusDisconnected)

		if attempts > cfg.PairingRetries {
			log.Printf("ble: giving up after %d failed attempts", attempts)
			return
		}
		select {
		case <-t.ctx.Done():
			return
		case <-time.After(time.Duration(cfg.PairingDelayMS) * time.Millisecond):
		}
	}
}

// session runs one connection from dial to link loss. The bool reports
// whether a link was established at all, which resets the retry budget.
func (t *Transport) session(cfg config.Settings) (bool, error) {
	ctx, cancel := context.WithTimeout(t.ctx, scanTimeout)
	defer cancel()

	var (
		client goble.Client
		err    error
	)
	if cfg.DeviceAddress != "" {
		client, err = goble.Dial(ctx, goble.NewAddr(cfg.DeviceAddress))
	} else {
		svc, perr := goble.Parse(cfg.ServiceUUID)
		if perr != nil {
			return false, fmt.Errorf("service uuid %q: %w", cfg.ServiceUUID, perr)
		}
		client, err = goble.Connect(ctx, func(a goble.Advertisement) bool {
			return goble.Contains(a.Services(), svc)
		})
	}
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer client.CancelConnection()
	log.Printf("ble: connected to %s", client.Addr())

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		return true, fmt.Errorf("discover profile: %w", err)
	}
	data, err := findCharacteristic(profile, cfg.DataCharUUID)
	if err != nil {
		return true, err
	}
	cmd, err := findCharacteristic(profile, cfg.CommandCharUUID)
	if err != nil {
		return true, err
	}

	if err := t.initialize(client, cmd); err != nil {
		return true, err
	}
	if err := client.Subscribe(data, false, t.handleNotification); err != nil {
		return true, fmt.Errorf("subscribe: %w", err)
	}
	t.setStatus(controller.StatusConnected)
	log.Printf("ble: sensor stream active")

	keepAlive := time.NewTicker(protocol.KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-t.ctx.Done():
			client.ClearSubscriptions()
			return true, nil
		case <-client.Disconnected():
			return true, fmt.Errorf("link lost")
		case <-keepAlive.C:
			if err := client.WriteCharacteristic(cmd, protocol.CmdKeepAlive.Bytes(), true); err != nil {
				return true, fmt.Errorf("keep-alive: %w", err)
			}
		}
	}
}

// initialize writes the bring-up sequence that switches the controller
// into high-rate sensor mode.
func (t *Transport) initialize(client goble.Client, cmd *goble.Characteristic) error {
	for _, step := range protocol.InitSequence {
		for i := 0; i < step.Repeat; i++ {
			if err := client.WriteCharacteristic(cmd, step.Cmd.Bytes(), true); err != nil {
				return fmt.Errorf("init write %v: %w", step.Cmd, err)
			}
			select {
			case <-t.ctx.Done():
				return t.ctx.Err()
			case <-time.After(protocol.CommandDelay):
			}
		}
	}
	return nil
}

// handleNotification runs on the HCI event goroutine, so it must never
// block: when the consumer stalls the oldest packet is dropped.
func (t *Transport) handleNotification(req []byte) {
	buf := append([]byte(nil), req...)
	select {
	case t.packets <- buf:
	default:
		select {
		case <-t.packets:
		default:
		}
		select {
		case t.packets <- buf:
		default:
		}
	}
}

func (t *Transport) setStatus(s controller.ConnectionStatus) {
	select {
	case t.status <- s:
	default:
	}
}

func findCharacteristic(p *goble.Profile, uuid string) (*goble.Characteristic, error) {
	u, err := goble.Parse(uuid)
	if err != nil {
		return nil, fmt.Errorf("characteristic uuid %q: %w", uuid, err)
	}
	if c := p.FindCharacteristic(goble.NewCharacteristic(u)); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("characteristic %s not found", uuid)
}
