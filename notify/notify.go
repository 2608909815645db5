// Package notify shows desktop notifications for completed dictations.
package notify

import (
	"github.com/gen2brain/beeep"

	"voxkey/log"
)

var disabled bool

func Disable() { disabled = true }

// Show posts a desktop notification. Failures are logged and swallowed,
// a missing notification daemon must not break dictation.
func Show(title, message string) {
	if disabled {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		log.Warnf("notification failed: %v", err)
	}
}
