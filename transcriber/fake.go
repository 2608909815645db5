package transcriber

import (
	"context"
	"sync"
)

// FakeTranscriber returns a canned result and records what it was
// asked to transcribe.
type FakeTranscriber struct {
	text string
	err  error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	WAVBytes int
	Lang     string
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(_ context.Context, wav []byte, lang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{WAVBytes: len(wav), Lang: lang})
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *FakeTranscriber) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
