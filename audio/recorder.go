package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"voxkey/log"
)

type RecorderConfig struct {
	SampleRate  int
	Channels    int
	MaxDuration time.Duration
}

// Recorder owns one WAV sink at a time and feeds it from a CaptureDevice.
// The capture backend runs on its own thread; the recorder only sees PCM
// chunks through the data callback. When MaxDuration worth of frames has
// been written the sink is frozen, so a recording left running self-limits
// and Stop later reports the capped duration.
type Recorder struct {
	capture CaptureDevice
	cfg     RecorderConfig

	mu        sync.Mutex
	active    bool
	full      bool
	startedAt time.Time
	w         *wavWriter
	frames    uint64
	maxFrames uint64
	path      string
}

func NewRecorder(capture CaptureDevice, cfg RecorderConfig) *Recorder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = Channels
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 30 * time.Second
	}
	return &Recorder{capture: capture, cfg: cfg}
}

// Start opens path as the WAV destination and starts the capture stream.
// Calling Start while a recording is active is a warned no-op: the first
// session keeps running and no second sink is created.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		log.Warn("recorder already active, ignoring start request")
		return nil
	}

	w, err := newWAVWriter(path, r.cfg.SampleRate, r.cfg.Channels)
	if err != nil {
		return fmt.Errorf("opening audio sink: %w", err)
	}

	r.w = w
	r.path = path
	r.frames = 0
	r.full = false
	r.maxFrames = uint64(r.cfg.MaxDuration.Seconds() * float64(r.cfg.SampleRate))
	r.startedAt = time.Now()

	r.capture.SetCallback(r.onData)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.w.Close()
		r.w = nil
		os.Remove(path)
		return fmt.Errorf("starting capture: %w", err)
	}

	r.active = true
	return nil
}

func (r *Recorder) onData(data []byte, frameCount uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active || r.full || r.w == nil {
		return
	}

	remaining := r.maxFrames - r.frames
	if uint64(frameCount) >= remaining {
		data = data[:remaining*bytesPerFrame]
		frameCount = uint32(remaining)
		r.full = true
		log.Warnf("max recording duration (%s) reached", r.cfg.MaxDuration)
	}
	if len(data) == 0 {
		return
	}
	if err := r.w.Write(data); err != nil {
		log.Errorf("audio sink write error: %v", err)
		r.full = true
		return
	}
	r.frames += uint64(frameCount)
}

// Stop ends the recording and returns the captured duration in seconds.
// It joins the capture stream before returning, so the WAV file is fully
// flushed and closed by then. Safe to call when not recording (returns 0)
// and after a max-duration self-stop (returns the capped duration).
func (r *Recorder) Stop() float64 {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return 0
	}
	r.active = false
	r.mu.Unlock()

	r.capture.ClearCallback()
	r.capture.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w != nil {
		if err := r.w.Close(); err != nil {
			log.Errorf("closing audio sink: %v", err)
		}
		r.w = nil
	}
	return float64(r.frames) / float64(r.cfg.SampleRate)
}

// Elapsed reports the current recording length, 0 when idle.
func (r *Recorder) Elapsed() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0
	}
	if r.full {
		return float64(r.frames) / float64(r.cfg.SampleRate)
	}
	return time.Since(r.startedAt).Seconds()
}

func (r *Recorder) IsActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Release stops any in-progress recording and closes the capture device.
func (r *Recorder) Release() {
	r.Stop()
	r.capture.Close()
}
