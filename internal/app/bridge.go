// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the transports, the input pipeline, telemetry and
// the monitor UI into runnable programs.
package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gearvr_bridge/internal/ble"
	"github.com/relabs-tech/gearvr_bridge/internal/config"
	"github.com/relabs-tech/gearvr_bridge/internal/controller"
	"github.com/relabs-tech/gearvr_bridge/internal/inject"
	"github.com/relabs-tech/gearvr_bridge/internal/mapper"
	"github.com/relabs-tech/gearvr_bridge/internal/protocol"
)

const bridgeDeviceName = "gearvr-bridge"

// RunBridge runs the daemon: packet source -> decoder -> mapper ->
// virtual input devices, with MQTT telemetry on the side.
func RunBridge(configPath string) error {
	store, err := config.Open(configPath)
	if err != nil {
		return err
	}
	cfg := store.Snapshot()

	sink, err := inject.Open(bridgeDeviceName)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	defer sink.Close()

	tel := dialTelemetry(cfg.MQTTBroker, "gearvr-bridge")
	defer tel.close()
	if err := tel.subscribeSettings(store); err != nil {
		log.Printf("bridge: settings subscription: %v", err)
	}

	m := mapper.New(store, sink)
	m.OnEvent = func(ev mapper.Event) {
		tel.publish(topicGesture, ev)
	}

	commands := make(chan string, 4)
	if err := tel.subscribeCommands(commands); err != nil {
		log.Printf("bridge: command subscription: %v", err)
	}

	source, err := openSource(store, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	log.Println("bridge: pipeline running")
	for {
		select {
		case <-sig:
			log.Println("bridge: shutting down")
			return nil

		case action := <-commands:
			runCommand(m, action)

		case status, ok := <-source.Status():
			if !ok {
				continue
			}
			log.Printf("bridge: connection %s", status)
			tel.publishStatus(status)

		case buf, ok := <-source.Packets():
			if !ok {
				log.Println("bridge: packet source closed")
				return nil
			}
			reading, err := protocol.Decode(buf)
			if err != nil {
				if errors.Is(err, protocol.ErrNotSensorData) {
					continue
				}
				if store.Snapshot().DebugRawLogging {
					log.Printf("bridge: decode: %v (raw % x)", err, buf)
				}
				continue
			}
			now := time.Now()
			m.Process(&reading, now)
			tel.publishReading(&reading, now)
		}
	}
}

func runCommand(m *mapper.Mapper, action string) {
	switch action {
	case "calibrate_gyro":
		m.Motion().StartCalibration()
		log.Println("bridge: gyro calibration started, keep the controller still")
	case "recenter":
		m.Motion().ResetOrientation()
		log.Println("bridge: orientation re-centered")
	default:
		log.Printf("bridge: unknown command %q", action)
	}
}

// openSource picks the serial sniffer feed when a port is configured,
// the BLE transport otherwise.
func openSource(store *config.Store, cfg config.Settings) (controller.PacketSource, error) {
	if cfg.SerialPort != "" {
		log.Printf("bridge: using serial feed on %s", cfg.SerialPort)
		return OpenSerialFeed(cfg.SerialPort, cfg.SerialBaud)
	}
	transport := ble.New(store)
	if err := transport.Start(); err != nil {
		return nil, err
	}
	return transport, nil
}
