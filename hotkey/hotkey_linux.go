//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"voxkey/log"
)

const (
	evKey    = 1
	keyPress = 1

	// input_event is 24 bytes on 64-bit Linux:
	// timeval (16 bytes) + type (2) + code (2) + value (4)
	inputEventSize = 24

	rescanBackoff = time.Second
)

type evdevSource struct {
	code     uint16
	triggers chan struct{}
	raw      chan struct{}
	stop     chan struct{}
	once     sync.Once
}

// New builds an evdev trigger source for the named key. Reads /dev/input
// directly; requires the user to be in the 'input' group.
func New(keyName string) (Source, error) {
	code, err := keyCodeFor(keyName)
	if err != nil {
		return nil, err
	}
	return &evdevSource{
		code:     code,
		triggers: make(chan struct{}, 1),
		raw:      make(chan struct{}, 4),
		stop:     make(chan struct{}),
	}, nil
}

// Start launches the device supervisor. It never fails: missing or
// unreadable keyboards are logged and the scan retried with backoff.
func (s *evdevSource) Start() error {
	go s.run()
	return nil
}

func (s *evdevSource) Triggers() <-chan struct{} { return s.triggers }

func (s *evdevSource) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *evdevSource) run() {
	defer close(s.triggers)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		files := s.openKeyboards()
		if len(files) == 0 {
			if !s.sleep(rescanBackoff) {
				return
			}
			continue
		}

		var wg sync.WaitGroup
		for _, f := range files {
			wg.Add(1)
			go func(f *os.File) {
				defer wg.Done()
				s.readEvents(f)
			}(f)
		}
		readersDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(readersDone)
		}()

	forward:
		for {
			select {
			case <-s.stop:
				closeAll(files)
				wg.Wait()
				return
			case <-readersDone:
				// Every device read failed (unplug, suspend): rescan.
				break forward
			case <-s.raw:
				select {
				case s.triggers <- struct{}{}:
				default:
				}
			}
		}

		closeAll(files)
		log.Warn("keyboard devices lost, rescanning")
		if !s.sleep(rescanBackoff) {
			return
		}
	}
}

// sleep waits d, returning false if the source was stopped meanwhile.
func (s *evdevSource) sleep(d time.Duration) bool {
	select {
	case <-s.stop:
		return false
	case <-time.After(d):
		return true
	}
}

func (s *evdevSource) openKeyboards() []*os.File {
	keyboards, err := findKeyboards()
	if err != nil {
		log.Warnf("scanning input devices: %v", err)
		return nil
	}
	if len(keyboards) == 0 {
		log.Warn("no keyboard devices found (is user in 'input' group?)")
		return nil
	}

	var files []*os.File
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		log.Warn("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return files
}

func (s *evdevSource) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			// autorepeat (value 2) is not a new trigger
			if evType == evKey && evCode == s.code && evValue == keyPress {
				select {
				case s.raw <- struct{}{}:
				default:
				}
			}
		}
	}
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks evdev access and returns a status message.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}
	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
