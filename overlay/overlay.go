// Package overlay tracks what the status indicator should be showing.
// It owns the auto-hide timers and the recording elapsed counter so
// rendering front ends only have to draw snapshots.
package overlay

import (
	"sync"
	"time"
)

type State int

const (
	Hidden State = iota
	Recording
	Processing
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is one frame of overlay state, safe to hand across goroutines.
type Snapshot struct {
	State   State
	Seconds int    // elapsed recording time, Recording only
	Text    string // recognized text, Success only
	Message string // error message, Error only
}

// Sink receives every state change. Update must not block.
type Sink interface {
	Update(Snapshot)
}

const (
	successHideAfter = 1500 * time.Millisecond
	errorHideAfter   = 3 * time.Second
	tickInterval     = time.Second
)

// Display drives a Sink through the overlay lifecycle. All methods are
// safe for concurrent use.
type Display struct {
	sink Sink

	mu       sync.Mutex
	cur      Snapshot
	hide     *time.Timer
	hideVer  int
	tickDone chan struct{}
	closed   bool
}

func NewDisplay(sink Sink) *Display {
	return &Display{sink: sink}
}

// ShowRecording starts the elapsed-seconds counter at zero.
func (d *Display) ShowRecording() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.cancelTimersLocked()
	d.cur = Snapshot{State: Recording}
	d.startTickerLocked()
	d.sink.Update(d.cur)
}

func (d *Display) ShowProcessing() {
	d.set(Snapshot{State: Processing}, 0)
}

// ShowSuccess shows the recognized text briefly, then hides.
func (d *Display) ShowSuccess(text string) {
	d.set(Snapshot{State: Success, Text: text}, successHideAfter)
}

// ShowError shows the message a little longer than success, then hides.
func (d *Display) ShowError(message string) {
	d.set(Snapshot{State: Error, Message: message}, errorHideAfter)
}

func (d *Display) Hide() {
	d.set(Snapshot{State: Hidden}, 0)
}

// Current returns the latest snapshot.
func (d *Display) Current() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur
}

// Close stops all timers. Further Show calls are no-ops.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.cancelTimersLocked()
	d.closed = true
}

func (d *Display) set(snap Snapshot, hideAfter time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.cancelTimersLocked()
	d.cur = snap
	if hideAfter > 0 {
		ver := d.hideVer
		d.hide = time.AfterFunc(hideAfter, func() { d.autoHide(ver) })
	}
	d.sink.Update(d.cur)
}

// autoHide runs from a hide timer. A callback that lost the race with a
// newer state change carries a stale version and does nothing.
func (d *Display) autoHide(ver int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.hideVer != ver {
		return
	}
	d.cur = Snapshot{State: Hidden}
	d.sink.Update(d.cur)
}

func (d *Display) startTickerLocked() {
	done := make(chan struct{})
	d.tickDone = done
	go func() {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
			}
			d.mu.Lock()
			if d.closed || d.tickDone != done || d.cur.State != Recording {
				d.mu.Unlock()
				return
			}
			d.cur.Seconds++
			d.sink.Update(d.cur)
			d.mu.Unlock()
		}
	}()
}

// cancelTimersLocked stops the hide timer and releases any ticker
// goroutine. Caller holds mu.
func (d *Display) cancelTimersLocked() {
	if d.hide != nil {
		d.hide.Stop()
		d.hide = nil
	}
	d.hideVer++
	if d.tickDone != nil {
		close(d.tickDone)
		d.tickDone = nil
	}
}
