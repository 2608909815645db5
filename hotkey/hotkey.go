package hotkey

import "fmt"

// Source produces a trigger signal per physical key-down of the designated
// trigger key. Delivery is best-effort: device errors are logged and retried
// internally, never surfaced to the consumer. Once Stop is called the
// trigger channel is closed and the source cannot be restarted.
type Source interface {
	Start() error
	Triggers() <-chan struct{}
	Stop()
}

// Linux evdev codes for the keys that make sense as a dedicated trigger.
// F24 is the default: tools like keyd remap a chord (e.g. Ctrl+Space) to it
// system-wide, which sidesteps Wayland's global-shortcut restrictions.
var keyCodes = map[string]uint16{
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63,
	"f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"f11": 87, "f12": 88,
	"f13": 183, "f14": 184, "f15": 185, "f16": 186, "f17": 187, "f18": 188,
	"f19": 189, "f20": 190, "f21": 191, "f22": 192, "f23": 193, "f24": 194,
	"pause": 119, "scrolllock": 70,
}

func keyCodeFor(name string) (uint16, error) {
	code, ok := keyCodes[name]
	if !ok {
		return 0, fmt.Errorf("unknown trigger key %q", name)
	}
	return code, nil
}
