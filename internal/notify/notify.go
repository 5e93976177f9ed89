// Package notify sends desktop notifications for save and restore
// events. Failures are silently ignored since notifications are
// non-critical.
package notify

import "os/exec"

// Notifier sends desktop notifications. A disabled notifier is a no-op.
type Notifier struct {
	enabled bool

	// run is swappable in tests.
	run func(summary, body string)
}

// New creates a notifier. When enabled is false every Send is a no-op.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, run: sendNotifySend}
}

// Send fires a desktop notification and returns immediately.
func (n *Notifier) Send(summary, body string) {
	if n == nil || !n.enabled {
		return
	}
	n.run(summary, body)
}

func sendNotifySend(summary, body string) {
	cmd := exec.Command("notify-send", "-a", "winsnap", "-i", "preferences-system-windows", summary, body)
	_ = cmd.Start() // Fire and forget
}
