package mapper

// MouseButton identifies a pointer button on the injection sink.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
)

func (b MouseButton) String() string {
	if b == MouseRight {
		return "right"
	}
	return "left"
}

// Key is an abstract named key understood by the injection sink.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyEscape
	KeyVolumeUp
	KeyVolumeDown
	KeyLeftAlt
)

func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyEscape:
		return "escape"
	case KeyVolumeUp:
		return "volume-up"
	case KeyVolumeDown:
		return "volume-down"
	case KeyLeftAlt:
		return "alt"
	default:
		return "unknown"
	}
}

// Sink receives the abstract input commands produced by the mapper. The
// OS-level implementation lives in internal/inject; tests use a recorder.
type Sink interface {
	MoveMouse(dx, dy int) error
	ButtonDown(b MouseButton) error
	ButtonUp(b MouseButton) error
	Click(b MouseButton) error
	Wheel(ticks int) error
	HWheel(ticks int) error
	KeyTap(k Key) error
}
