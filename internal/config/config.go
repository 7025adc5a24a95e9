// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config holds the bridge settings: motion tuning, touchpad
// calibration, transport parameters. Settings are read on every sample by
// the engines and occasionally written by the monitor UI, so all access
// goes through a locked Store.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/gearvr_bridge/internal/controller"
	"github.com/relabs-tech/gearvr_bridge/internal/protocol"
)

// Settings is one coherent snapshot of all configuration values.
type Settings struct {
	// Motion tuning
	MouseSensitivity float64 `json:"mouse_sensitivity"`
	DeadZone         float64 `json:"dead_zone"`
	EnableSmoothing  bool    `json:"enable_smoothing"`
	SmoothingWindow  int     `json:"smoothing_window"`
	EnableAccel      bool    `json:"enable_acceleration"`
	AccelPower       float64 `json:"acceleration_power"`
	EdgeJoystick     bool    `json:"edge_joystick"`

	// Feature flags
	EnableTouchpad bool `json:"enable_touchpad"`
	EnableButtons  bool `json:"enable_buttons"`
	EnableGestures bool `json:"enable_gestures"`

	// Gyro axis policy
	GyroSwapAxes bool `json:"gyro_swap_axes"`
	GyroInvertX  bool `json:"gyro_invert_x"`
	GyroInvertY  bool `json:"gyro_invert_y"`

	// Touchpad calibration
	Calibration controller.TouchpadCalibration `json:"calibration"`

	// BLE
	ServiceUUID     string `json:"ble_service_uuid"`
	DataCharUUID    string `json:"ble_data_char_uuid"`
	CommandCharUUID string `json:"ble_command_char_uuid"`
	DeviceAddress   string `json:"ble_device_address"`
	PairingRetries  int    `json:"pairing_max_retries"`
	PairingDelayMS  int    `json:"pairing_retry_delay_ms"`

	// Debug feed (UART sniffer); BLE is used when empty
	SerialPort string `json:"serial_port"`
	SerialBaud int    `json:"serial_baud"`

	// Telemetry / monitor
	MQTTBroker  string `json:"mqtt_broker"`
	MonitorAddr string `json:"monitor_addr"`

	DebugRawLogging bool `json:"debug_raw_logging"`
}

// Defaults returns the settings used when no config file exists.
func Defaults() Settings {
	return Settings{
		MouseSensitivity: 2.0,
		DeadZone:         0.1,
		EnableSmoothing:  true,
		SmoothingWindow:  5,
		EnableAccel:      true,
		AccelPower:       1.5,

		EnableTouchpad: true,
		EnableButtons:  true,
		EnableGestures: true,

		Calibration: controller.DefaultCalibration(),

		ServiceUUID:     protocol.ServiceUUID,
		DataCharUUID:    protocol.DataCharUUID,
		CommandCharUUID: protocol.CommandCharUUID,
		PairingRetries:  3,
		PairingDelayMS:  1000,

		SerialBaud: 115200,

		MQTTBroker:  "tcp://localhost:1883",
		MonitorAddr: ":8080",
	}
}

// Store is the canonical settings object. Reads take a snapshot under the
// lock; no caller holds the lock across samples.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	path     string
}

// NewStore returns a store seeded with defaults and not backed by a file.
func NewStore() *Store {
	return &Store{settings: Defaults()}
}

// Open loads settings from path, falling back to defaults when the file
// does not exist. Save writes back to the same path.
func Open(path string) (*Store, error) {
	s := &Store{settings: Defaults(), path: path}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("config: invalid line %d: %q", lineNum, line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := s.settings.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := s.settings.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update applies fn to the settings under the write lock. Validation
// failures leave the store unchanged.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	fn(&next)
	if err := next.validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// Apply sets the given KEY=VALUE options as one atomic update; on any
// parse or validation failure the previous settings are kept.
func (s *Store) Apply(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	for key, value := range values {
		if err := next.setValue(key, value); err != nil {
			return err
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// SetCalibration replaces the touchpad calibration.
func (s *Store) SetCalibration(cal controller.TouchpadCalibration) error {
	return s.Update(func(set *Settings) { set.Calibration = cal })
}

// Save writes the settings back to the file the store was opened from.
func (s *Store) Save() error {
	s.mu.RLock()
	settings := s.settings
	path := s.path
	s.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("config: store has no backing file")
	}
	return settings.writeFile(path)
}

func (c *Settings) setValue(key, value string) error {
	switch key {
	case "MOUSE_SENSITIVITY":
		return parseFloat(value, key, &c.MouseSensitivity)
	case "DEAD_ZONE":
		return parseFloat(value, key, &c.DeadZone)
	case "ENABLE_SMOOTHING":
		return parseBool(value, key, &c.EnableSmoothing)
	case "SMOOTHING_WINDOW":
		return parseInt(value, key, &c.SmoothingWindow)
	case "ENABLE_ACCELERATION":
		return parseBool(value, key, &c.EnableAccel)
	case "ACCELERATION_POWER":
		return parseFloat(value, key, &c.AccelPower)
	case "EDGE_JOYSTICK":
		return parseBool(value, key, &c.EdgeJoystick)

	case "ENABLE_TOUCHPAD":
		return parseBool(value, key, &c.EnableTouchpad)
	case "ENABLE_BUTTONS":
		return parseBool(value, key, &c.EnableButtons)
	case "ENABLE_GESTURES":
		return parseBool(value, key, &c.EnableGestures)

	case "GYRO_SWAP_AXES":
		return parseBool(value, key, &c.GyroSwapAxes)
	case "GYRO_INVERT_X":
		return parseBool(value, key, &c.GyroInvertX)
	case "GYRO_INVERT_Y":
		return parseBool(value, key, &c.GyroInvertY)

	case "CAL_MIN_X":
		return parseUint16(value, key, &c.Calibration.MinX)
	case "CAL_MAX_X":
		return parseUint16(value, key, &c.Calibration.MaxX)
	case "CAL_MIN_Y":
		return parseUint16(value, key, &c.Calibration.MinY)
	case "CAL_MAX_Y":
		return parseUint16(value, key, &c.Calibration.MaxY)
	case "CAL_CENTER_X":
		return parseUint16(value, key, &c.Calibration.CenterX)
	case "CAL_CENTER_Y":
		return parseUint16(value, key, &c.Calibration.CenterY)

	case "BLE_SERVICE_UUID":
		c.ServiceUUID = value
	case "BLE_DATA_CHAR_UUID":
		c.DataCharUUID = value
	case "BLE_COMMAND_CHAR_UUID":
		c.CommandCharUUID = value
	case "BLE_DEVICE_ADDRESS":
		c.DeviceAddress = value
	case "PAIRING_MAX_RETRIES":
		return parseInt(value, key, &c.PairingRetries)
	case "PAIRING_RETRY_DELAY_MS":
		return parseInt(value, key, &c.PairingDelayMS)

	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		return parseInt(value, key, &c.SerialBaud)

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MONITOR_ADDR":
		c.MonitorAddr = value

	case "DEBUG_RAW_LOGGING":
		return parseBool(value, key, &c.DebugRawLogging)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return nil
}

func (c *Settings) validate() error {
	if c.MouseSensitivity <= 0 {
		return fmt.Errorf("config: MOUSE_SENSITIVITY must be > 0, got %v", c.MouseSensitivity)
	}
	if c.DeadZone < 0 {
		return fmt.Errorf("config: DEAD_ZONE must be >= 0, got %v", c.DeadZone)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("config: SMOOTHING_WINDOW must be >= 1, got %d", c.SmoothingWindow)
	}
	if c.AccelPower <= 0 {
		return fmt.Errorf("config: ACCELERATION_POWER must be > 0, got %v", c.AccelPower)
	}
	if c.Calibration.MaxX < c.Calibration.MinX || c.Calibration.MaxY < c.Calibration.MinY {
		return fmt.Errorf("config: calibration max must be >= min per axis")
	}
	if c.PairingRetries < 0 {
		return fmt.Errorf("config: PAIRING_MAX_RETRIES must be >= 0, got %d", c.PairingRetries)
	}
	return nil
}

func (c *Settings) writeFile(path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# gearvr_bridge settings\n")
	fmt.Fprintf(&b, "MOUSE_SENSITIVITY=%g\n", c.MouseSensitivity)
	fmt.Fprintf(&b, "DEAD_ZONE=%g\n", c.DeadZone)
	fmt.Fprintf(&b, "ENABLE_SMOOTHING=%t\n", c.EnableSmoothing)
	fmt.Fprintf(&b, "SMOOTHING_WINDOW=%d\n", c.SmoothingWindow)
	fmt.Fprintf(&b, "ENABLE_ACCELERATION=%t\n", c.EnableAccel)
	fmt.Fprintf(&b, "ACCELERATION_POWER=%g\n", c.AccelPower)
	fmt.Fprintf(&b, "EDGE_JOYSTICK=%t\n", c.EdgeJoystick)
	fmt.Fprintf(&b, "ENABLE_TOUCHPAD=%t\n", c.EnableTouchpad)
	fmt.Fprintf(&b, "ENABLE_BUTTONS=%t\n", c.EnableButtons)
	fmt.Fprintf(&b, "ENABLE_GESTURES=%t\n", c.EnableGestures)
	fmt.Fprintf(&b, "GYRO_SWAP_AXES=%t\n", c.GyroSwapAxes)
	fmt.Fprintf(&b, "GYRO_INVERT_X=%t\n", c.GyroInvertX)
	fmt.Fprintf(&b, "GYRO_INVERT_Y=%t\n", c.GyroInvertY)
	fmt.Fprintf(&b, "CAL_MIN_X=%d\n", c.Calibration.MinX)
	fmt.Fprintf(&b, "CAL_MAX_X=%d\n", c.Calibration.MaxX)
	fmt.Fprintf(&b, "CAL_MIN_Y=%d\n", c.Calibration.MinY)
	fmt.Fprintf(&b, "CAL_MAX_Y=%d\n", c.Calibration.MaxY)
	fmt.Fprintf(&b, "CAL_CENTER_X=%d\n", c.Calibration.CenterX)
	fmt.Fprintf(&b, "CAL_CENTER_Y=%d\n", c.Calibration.CenterY)
	fmt.Fprintf(&b, "BLE_SERVICE_UUID=%s\n", c.ServiceUUID)
	fmt.Fprintf(&b, "BLE_DATA_CHAR_UUID=%s\n", c.DataCharUUID)
	fmt.Fprintf(&b, "BLE_COMMAND_CHAR_UUID=%s\n", c.CommandCharUUID)
	fmt.Fprintf(&b, "BLE_DEVICE_ADDRESS=%s\n", c.DeviceAddress)
	fmt.Fprintf(&b, "PAIRING_MAX_RETRIES=%d\n", c.PairingRetries)
	fmt.Fprintf(&b, "PAIRING_RETRY_DELAY_MS=%d\n", c.PairingDelayMS)
	fmt.Fprintf(&b, "SERIAL_PORT=%s\n", c.SerialPort)
	fmt.Fprintf(&b, "SERIAL_BAUD=%d\n", c.SerialBaud)
	fmt.Fprintf(&b, "MQTT_BROKER=%s\n", c.MQTTBroker)
	fmt.Fprintf(&b, "MONITOR_ADDR=%s\n", c.MonitorAddr)
	fmt.Fprintf(&b, "DEBUG_RAW_LOGGING=%t\n", c.DebugRawLogging)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func parseFloat(value, key string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func parseInt(value, key string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func parseUint16(value, key string, dst *uint16) error {
	v, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = uint16(v)
	return nil
}

func parseBool(value, key string, dst *bool) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}
