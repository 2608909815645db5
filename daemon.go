package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"voxkey/audio"
	"voxkey/config"
	"voxkey/log"
	"voxkey/overlay"
	"voxkey/transcriber"
)

type daemonState int

const (
	stateIdle daemonState = iota
	stateRecording
	stateProcessing
	stateInserting
)

func (s daemonState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRecording:
		return "recording"
	case stateProcessing:
		return "processing"
	case stateInserting:
		return "inserting"
	default:
		return "unknown"
	}
}

const (
	// Recordings shorter than this are accidental taps, discarded
	// without an API call.
	minRecording = 500 * time.Millisecond

	// Upper bounds on the insertion path so a wedged clipboard or
	// compositor cannot pin a cycle forever.
	insertTimeout  = 10 * time.Second
	restoreTimeout = 5 * time.Second

	// How long after the paste before the previous clipboard contents
	// go back, when copy_to_clipboard is off.
	restoreDelay = 600 * time.Millisecond

	errorDisplayLimit = 50
)

// Daemon is the dictation state machine. OnTrigger is the only external
// entry point: first press starts recording, second press stops it and
// kicks off transcription and insertion. Presses that arrive while a
// previous cycle is still processing are dropped.
type Daemon struct {
	cfg      config.Config
	recorder *audio.Recorder
	trans    transcriber.Transcriber
	display  *overlay.Display

	// Injection points for tests. All set to real implementations
	// by newDaemon.
	insertText  func(string) error
	copyText    func(string) error
	readClip    func() (string, error)
	restoreClip func(string)
	notifyDone  func(title, message string)
	cueStart    func()
	cueStop     func()
	cueError    func()

	restoreAfter time.Duration
	tempDir      string

	mu       sync.Mutex
	state    daemonState
	wavPath  string
	closed   bool
	cycles   int
	inflight sync.WaitGroup
}

func newDaemon(cfg config.Config, recorder *audio.Recorder, trans transcriber.Transcriber, display *overlay.Display) *Daemon {
	return &Daemon{
		cfg:          cfg,
		recorder:     recorder,
		trans:        trans,
		display:      display,
		insertText:   insertFn(cfg),
		copyText:     copyFn(cfg),
		readClip:     readClipFn(cfg),
		restoreClip:  restoreClipFn(cfg),
		notifyDone:   notifyFn(cfg),
		cueStart:     playStartCue,
		cueStop:      playStopCue,
		cueError:     playErrorCue,
		restoreAfter: restoreDelay,
		tempDir:      os.TempDir(),
	}
}

// OnTrigger handles one hotkey press. It never blocks on network or
// insertion; the slow half of the cycle runs on its own goroutine.
func (d *Daemon) OnTrigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	switch d.state {
	case stateIdle:
		d.startRecordingLocked()
	case stateRecording:
		d.stopAndTranscribeLocked()
	default:
		log.Infof("trigger ignored, cycle busy (%s)", d.state)
	}
}

// State reports the current lifecycle phase.
func (d *Daemon) State() daemonState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Daemon) startRecordingLocked() {
	path := filepath.Join(d.tempDir, "voxkey_"+randomHex()+".wav")
	if err := d.recorder.Start(path); err != nil {
		log.Errorf("recording start failed: %v", err)
		d.showError(err.Error())
		return
	}
	d.wavPath = path
	d.state = stateRecording
	d.display.ShowRecording()
	go d.cueStart()
	log.Info("recording started")
}

func (d *Daemon) stopAndTranscribeLocked() {
	duration := d.recorder.Stop()
	path := d.wavPath
	d.wavPath = ""
	go d.cueStop()

	if duration < minRecording.Seconds() {
		log.Infof("recording too short (%.2fs), discarded", duration)
		os.Remove(path)
		d.state = stateIdle
		d.showError("recording too short")
		return
	}

	d.state = stateProcessing
	d.display.ShowProcessing()
	log.Infof("recording stopped after %.1fs", duration)

	d.inflight.Add(1)
	go d.transcribeAndInsert(path, duration)
}

// transcribeAndInsert runs the network and insertion half of a cycle.
// Whatever happens, the temp file is removed and the daemon returns
// to idle.
func (d *Daemon) transcribeAndInsert(path string, duration float64) {
	defer d.inflight.Done()
	defer os.Remove(path)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic in transcription cycle: %v\n%s", r, debug.Stack())
			d.finishCycle("panic", duration, 0)
			d.showError("internal error")
		}
	}()

	wav, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("cannot read recording: %v", err)
		d.finishCycle("read_error", duration, 0)
		d.showError("could not read recording")
		return
	}

	text, err := d.trans.Transcribe(context.Background(), wav, d.cfg.Language())
	if err != nil {
		log.Errorf("transcription failed: %v", err)
		d.finishCycle("transcription_error", duration, 0)
		d.showError(errorMessage(err))
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Info("no speech detected")
		d.finishCycle("no_speech", duration, 0)
		d.showError("no speech detected")
		return
	}

	d.setState(stateInserting)
	if err := d.deliver(text); err != nil {
		log.Errorf("text insertion failed: %v", err)
		d.finishCycle("insertion_error", duration, len(text))
		d.showError(errorMessage(err))
		return
	}

	d.finishCycle("ok", duration, len(text))
	d.display.ShowSuccess(text)
	d.notifyDone("voxkey", text)
	log.Cycle("ok", duration, len(text))
}

// deliver copies the text to the clipboard and pastes it, each step
// under its own deadline. When the clipboard is only a paste vehicle,
// the previous contents are saved before anything is copied and put
// back shortly after the paste has landed.
func (d *Daemon) deliver(text string) error {
	var prev string
	if d.restoreClip != nil && d.readClip != nil {
		prev, _ = d.readClip()
	}
	if d.copyText != nil {
		if err := runWithTimeout(restoreTimeout, func() error { return d.copyText(text) }); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
	}
	if d.insertText != nil {
		if err := runWithTimeout(insertTimeout, func() error { return d.insertText(text) }); err != nil {
			return fmt.Errorf("paste: %w", err)
		}
	}
	if d.restoreClip != nil {
		restore := d.restoreClip
		delay := d.restoreAfter
		go func() {
			time.Sleep(delay)
			restore(prev)
		}()
	}
	return nil
}

func (d *Daemon) finishCycle(outcome string, duration float64, chars int) {
	d.mu.Lock()
	d.state = stateIdle
	d.cycles++
	d.mu.Unlock()
	if outcome != "ok" {
		log.Cycle(outcome, duration, chars)
	}
}

func (d *Daemon) setState(s daemonState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *Daemon) showError(message string) {
	d.display.ShowError(truncateMessage(message, errorDisplayLimit))
	go d.cueError()
}

// Cycles reports how many dictation cycles completed since start.
func (d *Daemon) Cycles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cycles
}

// Shutdown stops any active recording, waits briefly for an in-flight
// transcription, and closes the overlay. Idempotent.
func (d *Daemon) Shutdown() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.state == stateRecording {
		d.recorder.Stop()
		if d.wavPath != "" {
			os.Remove(d.wavPath)
			d.wavPath = ""
		}
	}
	d.mu.Unlock()

	waitDone := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		log.Warn("shutdown: transcription still in flight, abandoning")
	}

	d.display.Close()
	log.SessionEnd(d.Cycles())
}

// errorMessage maps a transcription error to a short user-facing line.
func errorMessage(err error) string {
	var terr *transcriber.Error
	if errors.As(err, &terr) {
		switch terr.Kind {
		case transcriber.KindConnection:
			return "connection failed"
		case transcriber.KindAPI:
			return fmt.Sprintf("API error %d", terr.Code)
		}
	}
	return err.Error()
}

func truncateMessage(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func runWithTimeout(limit time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		return fmt.Errorf("timed out after %s", limit)
	}
}

func randomHex() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
