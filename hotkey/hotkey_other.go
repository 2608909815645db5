//go:build !linux

package hotkey

import (
	"sync"

	"golang.design/x/hotkey"
)

// xSource registers Ctrl+Shift+Space through golang.design/x/hotkey.
// The configured key name is accepted but unused here: the library cannot
// grab bare F-keys portably, so non-Linux platforms keep the fixed chord.
type xSource struct {
	hk       *hotkey.Hotkey
	triggers chan struct{}
	stop     chan struct{}
	once     sync.Once
}

func New(_ string) (Source, error) {
	return &xSource{
		hk:       hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		triggers: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

func (s *xSource) Start() error {
	if err := s.hk.Register(); err != nil {
		return err
	}
	go func() {
		defer close(s.triggers)
		for {
			select {
			case <-s.stop:
				return
			case <-s.hk.Keydown():
				select {
				case s.triggers <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

func (s *xSource) Triggers() <-chan struct{} { return s.triggers }

func (s *xSource) Stop() {
	s.once.Do(func() {
		close(s.stop)
		s.hk.Unregister()
	})
}

// Diagnose reports hotkey availability on this platform.
func Diagnose() (string, error) {
	return "hotkey support available (Ctrl+Shift+Space)", nil
}
