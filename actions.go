package main

import (
	"voxkey/beep"
	"voxkey/clipboard"
	"voxkey/config"
	"voxkey/notify"
)

// insertFn returns the paste step, or nil when auto-paste is off.
func insertFn(cfg config.Config) func(string) error {
	if !cfg.Behavior.AutoPaste {
		return nil
	}
	return func(string) error { return clipboard.Paste() }
}

// readClipFn and restoreClipFn are set together when the clipboard is
// only a paste vehicle. The previous contents must be read before the
// dictated text is copied, so the daemon owns the ordering and these
// just expose the two clipboard ends of it.
func readClipFn(cfg config.Config) func() (string, error) {
	if !cfg.Behavior.AutoPaste || cfg.Behavior.CopyToClipboard {
		return nil
	}
	return clipboard.Read
}

func restoreClipFn(cfg config.Config) func(string) {
	if !cfg.Behavior.AutoPaste || cfg.Behavior.CopyToClipboard {
		return nil
	}
	return func(prev string) { clipboard.Copy(prev) }
}

// copyFn returns the clipboard step. Pasting reads from the clipboard,
// so the copy happens whenever either behavior wants it.
func copyFn(cfg config.Config) func(string) error {
	if !cfg.Behavior.AutoPaste && !cfg.Behavior.CopyToClipboard {
		return nil
	}
	return clipboard.Copy
}

func notifyFn(cfg config.Config) func(title, message string) {
	if !cfg.Behavior.ShowNotification {
		return func(string, string) {}
	}
	return notify.Show
}

func playStartCue() { beep.PlayStart() }
func playStopCue()  { beep.PlayStop() }
func playErrorCue() { beep.PlayError() }
