// Package doctor runs system diagnostics for the dictation daemon:
// hotkey input access, audio capture, keystroke output, and API setup.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voxkey/audio"
	"voxkey/clipboard"
	"voxkey/config"
	"voxkey/hotkey"
	"voxkey/transcriber"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(cfg *config.Config) int {
	setupInterruptHandler()

	fmt.Println("voxkey doctor - system diagnostics")
	fmt.Println("===================================")

	allPass := true

	if !checkHotkey(cfg.Hotkey.Key) {
		allPass = false
	}
	if !checkAudio() {
		allPass = false
	}
	if !checkKeystrokes() {
		allPass = false
	}
	if !checkAPI(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(key string) bool {
	fmt.Println()
	fmt.Printf("[1/4] Hotkey input (%s)\n", key)

	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

func checkAudio() bool {
	fmt.Println()
	fmt.Println("[2/4] Audio capture")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	for _, d := range devices {
		fmt.Printf("    %s\n", d.Name)
	}
	fmt.Printf("  PASS: %d capture device(s)\n", len(devices))
	return true
}

func checkKeystrokes() bool {
	fmt.Println()
	fmt.Println("[3/4] Keystroke output")

	if err := clipboard.Init(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return false
	}

	msg, err := clipboard.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}

func checkAPI(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[4/4] Transcription API")

	key := cfg.APIKey()
	if key == "" {
		fmt.Println("  FAIL: no API key (set api.key in config or VOXKEY_API_KEY)")
		return false
	}
	fmt.Println("  API key configured, sending test request...")

	tr := transcriber.NewWhisper(key, cfg.API.Endpoint, cfg.API.Model)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// A silent half-second clip. Any non-auth response proves the
	// endpoint and key work.
	_, err := tr.Transcribe(ctx, silentWAV(), cfg.Language())
	if err != nil {
		var terr *transcriber.Error
		if errors.As(err, &terr) {
			switch {
			case terr.Kind == transcriber.KindAPI && terr.Code == 401:
				fmt.Printf("  FAIL: API key rejected: %s\n", terr.Message)
				return false
			case terr.Kind == transcriber.KindConnection:
				fmt.Printf("  FAIL: cannot reach %s: %s\n", cfg.API.Endpoint, terr.Message)
				return false
			}
		}
	}
	fmt.Println("  PASS: endpoint reachable, key accepted")
	return true
}

// silentWAV builds a 0.5s silent 16kHz mono s16 WAV in memory.
func silentWAV() []byte {
	const frames = 8000
	dataSize := frames * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	putLE32(buf[4:], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	putLE32(buf[16:], 16)
	putLE16(buf[20:], 1) // PCM
	putLE16(buf[22:], 1) // mono
	putLE32(buf[24:], 16000)
	putLE32(buf[28:], 16000*2)
	putLE16(buf[32:], 2)
	putLE16(buf[34:], 16)
	copy(buf[36:40], "data")
	putLE32(buf[40:], uint32(dataSize))
	return buf
}

func putLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
