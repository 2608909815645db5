package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestRecorder(t *testing.T, max time.Duration) (*Recorder, *FakeCapture, string) {
	t.Helper()
	fc := NewFakeCapture()
	r := NewRecorder(fc, RecorderConfig{MaxDuration: max})
	path := filepath.Join(t.TempDir(), "rec.wav")
	return r, fc, path
}

func TestRecorderCapturesDuration(t *testing.T) {
	r, fc, path := newTestRecorder(t, 30*time.Second)

	if err := r.Start(path); err != nil {
		t.Fatal(err)
	}
	if !r.IsActive() {
		t.Fatal("recorder should be active after Start")
	}
	fc.FeedSeconds(2.0, 1024)

	got := r.Stop()
	if got < 1.99 || got > 2.01 {
		t.Errorf("duration = %v, want 2.0", got)
	}
	if r.IsActive() {
		t.Error("recorder still active after Stop")
	}
}

func TestRecorderWritesValidWAV(t *testing.T) {
	r, fc, path := newTestRecorder(t, 30*time.Second)

	if err := r.Start(path); err != nil {
		t.Fatal(err)
	}
	fc.FeedSeconds(0.5, 512)
	r.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < WAVHeaderSize {
		t.Fatalf("file too small: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int(dataSize) != len(data)-WAVHeaderSize {
		t.Errorf("data chunk size %d, file carries %d", dataSize, len(data)-WAVHeaderSize)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Errorf("sample rate %d, want %d", rate, SampleRate)
	}
}

func TestRecorderMaxDurationSelfStop(t *testing.T) {
	r, fc, path := newTestRecorder(t, time.Second)

	if err := r.Start(path); err != nil {
		t.Fatal(err)
	}
	// Feed twice the ceiling; frames past it must be discarded.
	fc.FeedSeconds(2.0, 1024)

	if got := r.Elapsed(); got < 0.99 || got > 1.01 {
		t.Errorf("elapsed after self-stop = %v, want 1.0", got)
	}
	if got := r.Stop(); got < 0.99 || got > 1.01 {
		t.Errorf("duration = %v, want capped at 1.0", got)
	}
}

func TestRecorderStartWhileActiveIsNoop(t *testing.T) {
	r, fc, path := newTestRecorder(t, 30*time.Second)

	if err := r.Start(path); err != nil {
		t.Fatal(err)
	}
	second := filepath.Join(t.TempDir(), "second.wav")
	if err := r.Start(second); err != nil {
		t.Fatalf("second Start should be a no-op, got %v", err)
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("second Start must not create another sink")
	}
	fc.FeedSeconds(1.0, 1024)
	if got := r.Stop(); got < 0.99 {
		t.Errorf("first session lost: duration %v", got)
	}
}

func TestRecorderStopIdempotent(t *testing.T) {
	r, fc, path := newTestRecorder(t, 30*time.Second)

	if err := r.Start(path); err != nil {
		t.Fatal(err)
	}
	fc.FeedSeconds(1.0, 1024)
	r.Stop()
	if got := r.Stop(); got != 0 {
		t.Errorf("second Stop = %v, want 0", got)
	}
}

func TestRecorderElapsedIdle(t *testing.T) {
	r, _, _ := newTestRecorder(t, 30*time.Second)
	if got := r.Elapsed(); got != 0 {
		t.Errorf("Elapsed while idle = %v, want 0", got)
	}
}

func TestRecorderStartFailureCleansUp(t *testing.T) {
	fc := NewFakeCapture()
	fc.StartErr = os.ErrPermission
	r := NewRecorder(fc, RecorderConfig{})
	path := filepath.Join(t.TempDir(), "rec.wav")

	if err := r.Start(path); err == nil {
		t.Fatal("expected start error")
	}
	if r.IsActive() {
		t.Error("recorder must not be active after failed Start")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed Start must not leave a sink file behind")
	}
}
