package controller

// Reading is a single decoded sensor/button sample from the controller.
// One Reading is produced per BLE notification and discarded after one
// processing pass; any history lives in the stateful engines.
type Reading struct {
	// Device tick counter, monotonic but wraps. Ordering key, not wall time.
	Timestamp uint32 `json:"timestamp"`

	Temperature int16 `json:"temperature"`

	AccelX float64 `json:"ax"` // g
	AccelY float64 `json:"ay"`
	AccelZ float64 `json:"az"`

	GyroX float64 `json:"gx"` // deg/s equivalent
	GyroY float64 `json:"gy"`
	GyroZ float64 `json:"gz"`

	MagX float64 `json:"mx"`
	MagY float64 `json:"my"`
	MagZ float64 `json:"mz"`

	// Raw touchpad coordinates, 0-315.
	TouchX uint16 `json:"touch_x"`
	TouchY uint16 `json:"touch_y"`

	// Normalized touchpad coordinates in [-1,1], zero until the
	// normalizer has run over this reading.
	NormX float64 `json:"norm_x"`
	NormY float64 `json:"norm_y"`

	Trigger       bool `json:"trigger"`
	TouchpadClick bool `json:"touchpad_click"`
	Back          bool `json:"back"`
	Home          bool `json:"home"`
	VolumeUp      bool `json:"volume_up"`
	VolumeDown    bool `json:"volume_down"`
	Touched       bool `json:"touched"`

	// Raw notification payload, kept for diagnostics only.
	Raw []byte `json:"-"`
}

// TouchpadCalibration holds the raw-coordinate bounds used to normalize
// touchpad samples. Max must be >= Min per axis; an out-of-range center is
// tolerated and simply biases normalization.
type TouchpadCalibration struct {
	MinX    uint16 `json:"min_x"`
	MaxX    uint16 `json:"max_x"`
	MinY    uint16 `json:"min_y"`
	MaxY    uint16 `json:"max_y"`
	CenterX uint16 `json:"center_x"`
	CenterY uint16 `json:"center_y"`
}

// DefaultCalibration covers the full raw range with a centered origin.
func DefaultCalibration() TouchpadCalibration {
	return TouchpadCalibration{
		MinX:    0,
		MaxX:    315,
		MinY:    0,
		MaxY:    315,
		CenterX: 157,
		CenterY: 157,
	}
}

// ConnectionStatus reports transport state transitions. The core never
// decodes these; they only gate whether samples are flowing.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PacketSource is anything that delivers raw notification payloads and
// connection-status events: the BLE transport, the serial sniffer feed,
// or a replay source in tests.
type PacketSource interface {
	Packets() <-chan []byte
	Status() <-chan ConnectionStatus
	Close() error
}
