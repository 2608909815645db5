package audio

import "sync/atomic"

// FakeCapture is an in-memory CaptureDevice for tests: callers push PCM
// into the callback with Feed instead of a real microphone.
type FakeCapture struct {
	StartErr error

	callback atomic.Pointer[DataCallback]
	started  atomic.Bool
}

func NewFakeCapture() *FakeCapture {
	return &FakeCapture{}
}

func (f *FakeCapture) Start() error {
	if f.StartErr != nil {
		return f.StartErr
	}
	f.started.Store(true)
	return nil
}

func (f *FakeCapture) Stop()  { f.started.Store(false) }
func (f *FakeCapture) Close() {}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.callback.Store(&cb)
}

func (f *FakeCapture) ClearCallback() {
	f.callback.Store(nil)
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Started() bool { return f.started.Load() }

// Feed delivers one chunk of 16-bit mono PCM to the registered callback,
// as the platform backends would from their capture threads.
func (f *FakeCapture) Feed(data []byte) {
	cb := f.callback.Load()
	if cb != nil {
		(*cb)(data, uint32(len(data)/bytesPerFrame))
	}
}

// FeedSeconds pushes the given length of silence through the callback in
// chunkFrames-sized pieces.
func (f *FakeCapture) FeedSeconds(seconds float64, chunkFrames int) {
	total := int(seconds * SampleRate)
	chunk := make([]byte, chunkFrames*bytesPerFrame)
	for total > 0 {
		n := chunkFrames
		if total < n {
			n = total
		}
		f.Feed(chunk[:n*bytesPerFrame])
		total -= n
	}
}
