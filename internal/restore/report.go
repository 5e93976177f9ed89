package restore

import (
	"time"

	"github.com/1broseidon/winsnap/internal/layout"
)

// OutcomeKind is the per-window restore result.
type OutcomeKind int

const (
	OutcomeRestored OutcomeKind = iota
	OutcomeNotFound
	OutcomeApplyFailed
	OutcomeLaunchFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRestored:
		return "restored"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeApplyFailed:
		return "apply-failed"
	case OutcomeLaunchFailed:
		return "launch-failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one snapshot window. DisplayID is
// the display actually used, which differs from the captured one when
// the restorer fell back to the main display.
type Outcome struct {
	Window    layout.WindowState
	Kind      OutcomeKind
	Reason    string
	DisplayID string
}

// Counts is the aggregate summary of a restore call.
type Counts struct {
	Restored int
	NotFound int
	Failed   int
}

// Report is the complete result of one restore call: every window gets
// exactly one outcome, in snapshot order.
type Report struct {
	RunID          string
	Layout         string
	Started        time.Time
	Finished       time.Time
	Outcomes       []Outcome
	LaunchTimeouts []string // app IDs that never reported running in time
}

// Counts aggregates the per-window outcomes.
func (r *Report) Counts() Counts {
	var c Counts
	for _, o := range r.Outcomes {
		switch o.Kind {
		case OutcomeRestored:
			c.Restored++
		case OutcomeNotFound:
			c.NotFound++
		default:
			c.Failed++
		}
	}
	return c
}

// AllRestored reports whether every window was restored.
func (r *Report) AllRestored() bool {
	c := r.Counts()
	return c.NotFound == 0 && c.Failed == 0
}
