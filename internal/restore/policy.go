package restore

import "time"

// Policy bounds every wait the restorer performs. The same retry
// contract applies to every window regardless of which OS primitive
// sits underneath.
type Policy struct {
	LaunchPollInterval time.Duration // poll cadence for newly-launched apps
	LaunchTimeout      time.Duration // per-app bound on launch waiting
	SettleDelay        time.Duration // single pause after launching, before any apply
	ApplyAttempts      int           // bounded attempts per window
	ApplyBackoff       time.Duration // fixed backoff between apply attempts
	WindowPause        time.Duration // pause between windows
}

// DefaultPolicy returns the standard restore timings.
func DefaultPolicy() Policy {
	return Policy{
		LaunchPollInterval: 500 * time.Millisecond,
		LaunchTimeout:      10 * time.Second,
		SettleDelay:        1000 * time.Millisecond,
		ApplyAttempts:      3,
		ApplyBackoff:       500 * time.Millisecond,
		WindowPause:        200 * time.Millisecond,
	}
}

// withDefaults fills unset fields so a zero or partial policy is usable.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.LaunchPollInterval <= 0 {
		p.LaunchPollInterval = def.LaunchPollInterval
	}
	if p.LaunchTimeout <= 0 {
		p.LaunchTimeout = def.LaunchTimeout
	}
	if p.SettleDelay < 0 {
		p.SettleDelay = def.SettleDelay
	}
	if p.ApplyAttempts <= 0 {
		p.ApplyAttempts = def.ApplyAttempts
	}
	if p.ApplyBackoff < 0 {
		p.ApplyBackoff = def.ApplyBackoff
	}
	if p.WindowPause < 0 {
		p.WindowPause = def.WindowPause
	}
	return p
}
