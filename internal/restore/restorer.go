// Package restore turns a stored layout back into live window
// positions. The restorer is a forward-only state machine: permission
// precondition, topology refresh, launch, launch-wait, settle, then one
// bounded apply per window. Only the first two states can fail the
// call; everything after is absorbed into the per-window report.
package restore

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/winsnap/internal/layout"
)

// ErrPermission is the fatal precondition error for a restore call made
// without the required OS permissions. It is never retried here.
var ErrPermission = errors.New("required permissions not granted")

// TopologyError marks a failed display topology refresh, which is fatal
// for the whole call: no partial restoration without display context.
type TopologyError struct {
	Err error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("display topology refresh failed: %v", e.Err)
}

func (e *TopologyError) Unwrap() error { return e.Err }

// Restorer drives the three adapters to reproduce a layout. It owns no
// persistent state; a single restore call borrows the layout and
// adapters and emits a report.
type Restorer struct {
	topology Topology
	launcher Launcher
	applier  Applier
	logger   *slog.Logger

	// sleep and now are swappable in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// New creates a restorer over the given adapters. A nil logger
// discards output.
func New(topology Topology, launcher Launcher, applier Applier, logger *slog.Logger) *Restorer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Restorer{
		topology: topology,
		launcher: launcher,
		applier:  applier,
		logger:   logger,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Restore runs the state machine for one layout. permissionGranted is
// the caller's precondition check; when false the call fails
// immediately with ErrPermission. The returned report has one outcome
// per window; a non-nil error means no window was touched.
func (r *Restorer) Restore(l *layout.Layout, policy Policy, permissionGranted bool) (*Report, error) {
	policy = policy.withDefaults()
	report := &Report{
		RunID:   uuid.NewString(),
		Layout:  l.Name,
		Started: r.now(),
	}
	log := r.logger.With("run_id", report.RunID, "layout", l.Name)

	if !permissionGranted {
		return nil, ErrPermission
	}
	if err := r.topology.Refresh(); err != nil {
		return nil, &TopologyError{Err: err}
	}
	log.Info("restoring layout", "windows", len(l.Windows))

	launched, launchFailed := r.launchApps(l, log)
	r.awaitLaunches(launched, policy, report, log)
	if len(launched) > 0 {
		r.sleep(policy.SettleDelay)
	}

	live, enumErr := r.applier.Enumerate()
	if enumErr != nil {
		log.Warn("window enumeration failed", "error", enumErr)
	}
	claimed := make([]bool, len(live))

	for i, w := range l.Windows {
		outcome := r.restoreWindow(w, policy, live, claimed, launchFailed, enumErr, log)
		report.Outcomes = append(report.Outcomes, outcome)
		if i < len(l.Windows)-1 {
			r.sleep(policy.WindowPause)
		}
	}

	report.Finished = r.now()
	counts := report.Counts()
	log.Info("restore finished",
		"restored", counts.Restored,
		"not_found", counts.NotFound,
		"failed", counts.Failed)
	return report, nil
}

// launchApps launches each distinct app identity, in first-seen order,
// that is not already running. It returns the newly-launched identities
// and launch errors keyed by app identity.
func (r *Restorer) launchApps(l *layout.Layout, log *slog.Logger) ([]string, map[string]string) {
	var launched []string
	failed := make(map[string]string)
	seen := make(map[string]struct{})
	for _, w := range l.Windows {
		if _, ok := seen[w.AppID]; ok {
			continue
		}
		seen[w.AppID] = struct{}{}
		if r.launcher.IsRunning(w.AppID) {
			continue
		}
		log.Info("launching application", "app_id", w.AppID)
		if err := r.launcher.Launch(w.AppID); err != nil {
			log.Warn("launch failed", "app_id", w.AppID, "error", err)
			failed[w.AppID] = err.Error()
			continue
		}
		launched = append(launched, w.AppID)
	}
	return launched, failed
}

// awaitLaunches polls liveness for every newly-launched app. A
// timed-out app does not abort the call; its windows simply will not
// match a live window later.
func (r *Restorer) awaitLaunches(launched []string, policy Policy, report *Report, log *slog.Logger) {
	for _, appID := range launched {
		if !r.awaitRunning(appID, policy) {
			log.Warn("application did not report running",
				"app_id", appID, "timeout", policy.LaunchTimeout)
			report.LaunchTimeouts = append(report.LaunchTimeouts, appID)
		}
	}
}

func (r *Restorer) awaitRunning(appID string, policy Policy) bool {
	if r.launcher.IsRunning(appID) {
		return true
	}
	polls := int(policy.LaunchTimeout / policy.LaunchPollInterval)
	for i := 0; i < polls; i++ {
		r.sleep(policy.LaunchPollInterval)
		if r.launcher.IsRunning(appID) {
			return true
		}
	}
	return false
}

// restoreWindow resolves, remaps, and applies one window, retrying
// transient apply failures up to the policy bound.
func (r *Restorer) restoreWindow(
	w layout.WindowState,
	policy Policy,
	live []LiveWindow,
	claimed []bool,
	launchFailed map[string]string,
	enumErr error,
	log *slog.Logger,
) Outcome {
	if reason, ok := launchFailed[w.AppID]; ok {
		return Outcome{Window: w, Kind: OutcomeLaunchFailed, Reason: reason, DisplayID: w.DisplayID}
	}
	if enumErr != nil {
		return Outcome{
			Window:    w,
			Kind:      OutcomeApplyFailed,
			Reason:    fmt.Sprintf("window enumeration failed: %v", enumErr),
			DisplayID: w.DisplayID,
		}
	}

	target, ok := matchLive(w, live, claimed)
	if !ok {
		return Outcome{Window: w, Kind: OutcomeNotFound, Reason: "no live window matched", DisplayID: w.DisplayID}
	}

	displayID := w.DisplayID
	if _, ok := r.topology.DisplayByID(displayID); !ok {
		if main, ok := r.topology.MainDisplay(); ok {
			log.Warn("display missing, falling back to main display",
				"window", w.Title, "captured_display", w.DisplayID, "main_display", main.ID)
			displayID = main.ID
		}
	}

	frame := w.Frame
	if ax, ay, ok := r.topology.ToAbsolute(displayID, w.Frame.X, w.Frame.Y); ok {
		frame.X = ax
		frame.Y = ay
	}
	// Otherwise the captured coordinates are used unmodified.

	applyTarget := ApplyTarget{
		Window:     target,
		Frame:      frame,
		Level:      w.Level,
		Visibility: w.Visibility(),
	}

	var lastErr error
	for attempt := 1; attempt <= policy.ApplyAttempts; attempt++ {
		err := r.applier.Apply(applyTarget)
		if err == nil {
			return Outcome{Window: w, Kind: OutcomeRestored, DisplayID: displayID}
		}
		if errors.Is(err, ErrWindowNotFound) {
			// The window vanished; retrying cannot bring it back.
			return Outcome{Window: w, Kind: OutcomeNotFound, Reason: err.Error(), DisplayID: displayID}
		}
		lastErr = err
		log.Warn("apply attempt failed",
			"window", w.Title, "attempt", attempt, "attempts", policy.ApplyAttempts, "error", err)
		if attempt < policy.ApplyAttempts {
			r.sleep(policy.ApplyBackoff)
		}
	}
	return Outcome{Window: w, Kind: OutcomeApplyFailed, Reason: lastErr.Error(), DisplayID: displayID}
}

// matchLive resolves a snapshot window to a live one by exact
// (app_name, title) equality. Each live window is claimed at most once
// so duplicate titles map to distinct windows; which duplicate wins is
// unspecified beyond enumeration order.
func matchLive(w layout.WindowState, live []LiveWindow, claimed []bool) (LiveWindow, bool) {
	for i, lw := range live {
		if claimed[i] {
			continue
		}
		if lw.AppName == w.AppName && strings.TrimSpace(lw.Title) == strings.TrimSpace(w.Title) {
			claimed[i] = true
			return lw, true
		}
	}
	return LiveWindow{}, false
}
