package hotkey

import "sync"

// FakeSource is an in-memory Source for tests.
type FakeSource struct {
	triggers chan struct{}
	once     sync.Once
}

func NewFake() *FakeSource {
	return &FakeSource{triggers: make(chan struct{}, 1)}
}

func (f *FakeSource) Start() error              { return nil }
func (f *FakeSource) Triggers() <-chan struct{} { return f.triggers }

func (f *FakeSource) Stop() {
	f.once.Do(func() { close(f.triggers) })
}

// Trigger simulates one key-down of the trigger key.
func (f *FakeSource) Trigger() { f.triggers <- struct{}{} }
