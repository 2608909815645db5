package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"voxkey/audio"
	"voxkey/beep"
	"voxkey/clipboard"
	"voxkey/config"
	"voxkey/doctor"
	"voxkey/hotkey"
	"voxkey/log"
	"voxkey/notify"
	"voxkey/overlay"
	"voxkey/shutdown"
	"voxkey/transcriber"
)

var version = "dev"

var shutdownOnce sync.Once

func run() {
	configFlag := flag.String("config", "", "Config file path (default: ~/.config/voxkey/config.json)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g., en, ru). Empty = config/auto-detect")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	autoPasteFlag := flag.Bool("autopaste", true, "Auto-paste into the focused window after transcription")
	nobeepFlag := flag.Bool("nobeep", false, "Disable audio feedback cues")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *versionFlag {
		fmt.Printf("voxkey %s\n", version)
		os.Exit(0)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file only when given explicitly.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lang":
			cfg.Languages.Primary = *langFlag
			cfg.Languages.AutoDetect = *langFlag == ""
		case "autopaste":
			cfg.Behavior.AutoPaste = *autoPasteFlag
		}
	})

	if *doctorFlag {
		os.Exit(doctor.Run(&cfg))
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "Error: no API key configured.\n")
		fmt.Fprintf(os.Stderr, "Set api.key in %s or export VOXKEY_API_KEY.\n", configPath)
		os.Exit(1)
	}

	if *nobeepFlag {
		beep.Disable()
	}
	if !cfg.Behavior.ShowNotification {
		notify.Disable()
	}

	if cfg.Behavior.AutoPaste {
		if err := clipboard.Init(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
			fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	capture, err := audioCtx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   uint32(cfg.Audio.Channels),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}

	recorder := audio.NewRecorder(capture, audio.RecorderConfig{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		MaxDuration: time.Duration(cfg.Audio.MaxDurationS) * time.Second,
	})

	trans := transcriber.NewWhisper(apiKey, cfg.API.Endpoint, cfg.API.Model)

	var sink overlay.Sink
	if *tuiFlag {
		sink = tuiSink{}
	} else {
		sink = logSink{}
	}
	display := overlay.NewDisplay(sink)

	daemon := newDaemon(cfg, recorder, trans, display)

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(trans.Name(), capture.DeviceName())
	}

	hot, err := hotkey.New(cfg.Hotkey.Key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := hot.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting hotkey listener: %v\n", err)
		os.Exit(1)
	}

	stopAll := func() {
		shutdownOnce.Do(func() {
			hot.Stop()
			daemon.Shutdown()
			recorder.Release()
			log.Close()
			tuiMu.Lock()
			p := tuiProgram
			tuiMu.Unlock()
			if p != nil {
				p.Quit()
			}
			os.Exit(0)
		})
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		stopAll()
	}()

	go beep.Init()

	go func() {
		for range hot.Triggers() {
			daemon.OnTrigger()
		}
	}()

	log.Infof("listening for %s", cfg.Hotkey.Key)

	if *tuiFlag {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(cfg.Hotkey.Key, statusLineText(cfg, selectedDevice))
		tuiMu.Unlock()
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		stopAll()
	} else {
		fmt.Printf("voxkey %s listening for %s (Ctrl+C to quit)\n", version, cfg.Hotkey.Key)
		select {}
	}
}

func statusLineText(cfg config.Config, dev *audio.DeviceInfo) string {
	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	lang := cfg.Language()
	if lang == "" {
		lang = "auto"
	}
	return fmt.Sprintf("mic: %s | %s (%s)", name, cfg.API.Model, lang)
}
