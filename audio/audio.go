package audio

// Fixed capture format: the transcription APIs this daemon talks to all
// take 16 kHz mono 16-bit PCM, so the format is not configurable beyond
// what Config carries.
const (
	SampleRate    = 16000
	Channels      = 1
	bytesPerFrame = 2 // 16-bit mono

	WAVHeaderSize = 44
)

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}
