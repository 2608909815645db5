package main

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voxkey/audio"
	"voxkey/config"
	"voxkey/overlay"
	"voxkey/transcriber"
)

type testSink struct {
	mu    sync.Mutex
	snaps []overlay.Snapshot
}

func (s *testSink) Update(snap overlay.Snapshot) {
	s.mu.Lock()
	s.snaps = append(s.snaps, snap)
	s.mu.Unlock()
}

func (s *testSink) states() []overlay.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]overlay.State, len(s.snaps))
	for i, snap := range s.snaps {
		out[i] = snap.State
	}
	return out
}

func (s *testSink) saw(state overlay.State) bool {
	for _, st := range s.states() {
		if st == state {
			return true
		}
	}
	return false
}

type testHarness struct {
	daemon   *Daemon
	capture  *audio.FakeCapture
	sink     *testSink
	inserted []string
	copied   []string
	mu       sync.Mutex
}

func (h *testHarness) insertedTexts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.inserted))
	copy(out, h.inserted)
	return out
}

func newTestHarness(t *testing.T, trans transcriber.Transcriber) *testHarness {
	return newTestHarnessMax(t, trans, 30*time.Second)
}

func newTestHarnessMax(t *testing.T, trans transcriber.Transcriber, maxDuration time.Duration) *testHarness {
	t.Helper()

	h := &testHarness{
		capture: audio.NewFakeCapture(),
		sink:    &testSink{},
	}
	recorder := audio.NewRecorder(h.capture, audio.RecorderConfig{
		SampleRate:  16000,
		Channels:    1,
		MaxDuration: maxDuration,
	})
	display := overlay.NewDisplay(h.sink)
	t.Cleanup(display.Close)

	cfg := config.Default()
	d := newDaemon(cfg, recorder, trans, display)
	d.tempDir = t.TempDir()
	d.insertText = func(text string) error {
		h.mu.Lock()
		h.inserted = append(h.inserted, text)
		h.mu.Unlock()
		return nil
	}
	d.copyText = func(text string) error {
		h.mu.Lock()
		h.copied = append(h.copied, text)
		h.mu.Unlock()
		return nil
	}
	d.notifyDone = func(string, string) {}
	d.cueStart = func() {}
	d.cueStop = func() {}
	d.cueError = func() {}
	h.daemon = d
	return h
}

func waitForIdle(t *testing.T, d *Daemon) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if d.State() == stateIdle {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("daemon stuck in state %s", d.State())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func tempWAVs(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "voxkey_*.wav"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestFullDictationCycle(t *testing.T) {
	fake := transcriber.NewFake("привет мир", nil)
	h := newTestHarness(t, fake)

	h.daemon.OnTrigger()
	if got := h.daemon.State(); got != stateRecording {
		t.Fatalf("state = %s, want recording", got)
	}
	if !h.capture.Started() {
		t.Fatal("capture not started")
	}

	h.capture.FeedSeconds(2.0, 2048)
	h.daemon.OnTrigger()
	waitForIdle(t, h.daemon)

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("transcriber calls = %d, want 1", len(calls))
	}
	// 2s of 16kHz mono s16 plus the 44-byte header
	wantBytes := 2*16000*2 + 44
	if calls[0].WAVBytes != wantBytes {
		t.Errorf("wav bytes = %d, want %d", calls[0].WAVBytes, wantBytes)
	}

	if got := h.insertedTexts(); len(got) != 1 || got[0] != "привет мир" {
		t.Errorf("inserted = %v", got)
	}
	if !h.sink.saw(overlay.Recording) || !h.sink.saw(overlay.Processing) || !h.sink.saw(overlay.Success) {
		t.Errorf("overlay states = %v", h.sink.states())
	}
	if left := tempWAVs(t, h.daemon.tempDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
	if h.daemon.Cycles() != 1 {
		t.Errorf("cycles = %d, want 1", h.daemon.Cycles())
	}
}

func TestTooShortRecordingDiscarded(t *testing.T) {
	fake := transcriber.NewFake("unused", nil)
	h := newTestHarness(t, fake)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(0.1, 2048)
	h.daemon.OnTrigger()
	waitForIdle(t, h.daemon)

	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("transcriber called %d times for a too-short recording", len(calls))
	}
	if got := h.insertedTexts(); len(got) != 0 {
		t.Errorf("inserted = %v, want none", got)
	}
	if left := tempWAVs(t, h.daemon.tempDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
	h.sink.mu.Lock()
	var msg string
	for _, s := range h.sink.snaps {
		if s.State == overlay.Error {
			msg = s.Message
		}
	}
	h.sink.mu.Unlock()
	if msg != "recording too short" {
		t.Errorf("error message = %q, want %q", msg, "recording too short")
	}
}

func TestMaxDurationCapsRecording(t *testing.T) {
	fake := transcriber.NewFake("capped", nil)
	h := newTestHarnessMax(t, fake, 1*time.Second)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(3.0, 2048)
	h.daemon.OnTrigger()
	waitForIdle(t, h.daemon)

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(calls))
	}
	// frames past the cap are dropped, so only 1s of audio is kept
	wantBytes := 1*16000*2 + 44
	if calls[0].WAVBytes != wantBytes {
		t.Errorf("wav bytes = %d, want %d", calls[0].WAVBytes, wantBytes)
	}
	if got := h.insertedTexts(); len(got) != 1 || got[0] != "capped" {
		t.Errorf("inserted = %v, want [capped]", got)
	}
}

func TestClipboardRestoredAfterPaste(t *testing.T) {
	fake := transcriber.NewFake("привет", nil)
	h := newTestHarness(t, fake)

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}
	clip := "old contents"
	d := h.daemon
	d.restoreAfter = 10 * time.Millisecond
	d.readClip = func() (string, error) {
		record("read " + clip)
		return clip, nil
	}
	d.copyText = func(text string) error {
		record("copy " + text)
		clip = text
		return nil
	}
	d.insertText = func(text string) error {
		record("paste " + text)
		return nil
	}
	d.restoreClip = func(prev string) {
		clip = prev
		record("restore " + prev)
	}

	d.OnTrigger()
	h.capture.FeedSeconds(1.0, 2048)
	d.OnTrigger()
	waitForIdle(t, d)

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("restore never ran, events = %v", events)
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The previous contents must be read before the dictated text
	// touches the clipboard, and put back after the paste.
	want := "read old contents, copy привет, paste привет, restore old contents"
	mu.Lock()
	got := strings.Join(events, ", ")
	mu.Unlock()
	if got != want {
		t.Errorf("event order = %q, want %q", got, want)
	}
	if clip != "old contents" {
		t.Errorf("clipboard = %q after restore, want %q", clip, "old contents")
	}
}

func TestConnectionFailureShowsError(t *testing.T) {
	fake := transcriber.NewFake("", &transcriber.Error{Kind: transcriber.KindConnection, Message: "dial tcp: refused"})
	h := newTestHarness(t, fake)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(1.0, 2048)
	h.daemon.OnTrigger()
	waitForIdle(t, h.daemon)

	if !h.sink.saw(overlay.Error) {
		t.Fatalf("no error snapshot, states = %v", h.sink.states())
	}
	var msg string
	h.sink.mu.Lock()
	for _, s := range h.sink.snaps {
		if s.State == overlay.Error {
			msg = s.Message
		}
	}
	h.sink.mu.Unlock()
	if msg != "connection failed" {
		t.Errorf("error message = %q", msg)
	}
	if got := h.insertedTexts(); len(got) != 0 {
		t.Errorf("inserted on failure: %v", got)
	}
	if left := tempWAVs(t, h.daemon.tempDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestWhitespaceResultTreatedAsNoSpeech(t *testing.T) {
	fake := transcriber.NewFake("   \n\t ", nil)
	h := newTestHarness(t, fake)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(1.0, 2048)
	h.daemon.OnTrigger()
	waitForIdle(t, h.daemon)

	if got := h.insertedTexts(); len(got) != 0 {
		t.Errorf("inserted whitespace: %v", got)
	}
	var msg string
	h.sink.mu.Lock()
	for _, s := range h.sink.snaps {
		if s.State == overlay.Error {
			msg = s.Message
		}
	}
	h.sink.mu.Unlock()
	if msg != "no speech detected" {
		t.Errorf("error message = %q", msg)
	}
}

type blockingTranscriber struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingTranscriber) Name() string { return "blocking" }

func (b *blockingTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	<-b.release
	return "late result", nil
}

func TestTriggersDroppedWhileProcessing(t *testing.T) {
	blocking := &blockingTranscriber{release: make(chan struct{})}
	h := newTestHarness(t, blocking)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(1.0, 2048)
	h.daemon.OnTrigger()

	// Wait for the goroutine to reach the transcriber.
	deadline := time.After(5 * time.Second)
	for {
		blocking.mu.Lock()
		calls := blocking.calls
		blocking.mu.Unlock()
		if calls == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("transcriber never called")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Presses during processing must neither start a recording nor
	// queue another cycle.
	h.daemon.OnTrigger()
	h.daemon.OnTrigger()
	if got := h.daemon.State(); got != stateProcessing {
		t.Fatalf("state = %s, want processing", got)
	}

	close(blocking.release)
	waitForIdle(t, h.daemon)

	blocking.mu.Lock()
	calls := blocking.calls
	blocking.mu.Unlock()
	if calls != 1 {
		t.Errorf("transcriber calls = %d, want 1", calls)
	}
	if got := h.insertedTexts(); len(got) != 1 {
		t.Errorf("inserted = %v, want exactly one", got)
	}
}

func TestErrorMessageTruncated(t *testing.T) {
	longMsg := strings.Repeat("x", 200)
	fake := transcriber.NewFake("", &transcriber.Error{Kind: transcriber.KindOther, Message: longMsg})
	h := newTestHarness(t, fake)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(1.0, 2048)
	h.daemon.OnTrigger()
	waitForIdle(t, h.daemon)

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	for _, s := range h.sink.snaps {
		if s.State == overlay.Error {
			if got := len([]rune(s.Message)); got > errorDisplayLimit+3 {
				t.Errorf("error message %d runes, want <= %d", got, errorDisplayLimit+3)
			}
		}
	}
}

func TestShutdownDuringRecordingCleansUp(t *testing.T) {
	fake := transcriber.NewFake("unused", nil)
	h := newTestHarness(t, fake)

	h.daemon.OnTrigger()
	h.capture.FeedSeconds(1.0, 2048)
	h.daemon.Shutdown()
	h.daemon.Shutdown() // idempotent

	if left := tempWAVs(t, h.daemon.tempDir); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}

	// Triggers after shutdown are ignored.
	h.daemon.OnTrigger()
	if h.daemon.State() != stateRecording {
		return
	}
	t.Error("trigger accepted after shutdown")
}

func TestTruncateMessage(t *testing.T) {
	if got := truncateMessage("short", 50); got != "short" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("б", 60)
	got := truncateMessage(long, 50)
	if want := strings.Repeat("б", 50) + "..."; got != want {
		t.Errorf("got %d runes", len([]rune(got)))
	}
}
