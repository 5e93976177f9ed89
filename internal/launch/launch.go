// Package launch starts applications by identity and checks process
// liveness against /proc.
package launch

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Launcher starts applications for a restore run. Each app identity may
// have a configured command template; identities without one are
// executed directly as a binary name.
type Launcher struct {
	templates map[string]string
	logger    *slog.Logger

	// procDir and start are swappable in tests.
	procDir string
	start   func(argv []string) error
}

// New creates a launcher with the given app-identity command templates.
// A nil logger discards output.
func New(templates map[string]string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Launcher{
		templates: templates,
		logger:    logger,
		procDir:   "/proc",
		start:     startDetached,
	}
}

// IsRunning reports whether a process for the app identity exists. The
// identity matches a process comm name or any argv token's basename, so
// both "firefox" and "org.mozilla.firefox" style identities work.
func (l *Launcher) IsRunning(appID string) bool {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return false
	}

	entries, err := os.ReadDir(l.procDir)
	if err != nil {
		l.logger.Warn("failed to read process table", "error", err)
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() || !isNumeric(entry.Name()) {
			continue
		}
		if l.processMatches(entry.Name(), appID) {
			return true
		}
	}
	return false
}

func (l *Launcher) processMatches(pid, appID string) bool {
	comm, err := os.ReadFile(filepath.Join(l.procDir, pid, "comm"))
	if err == nil && processNameMatches(strings.TrimSpace(string(comm)), appID) {
		return true
	}

	cmdline, err := os.ReadFile(filepath.Join(l.procDir, pid, "cmdline"))
	if err != nil || len(cmdline) == 0 {
		return false
	}
	for _, arg := range strings.Split(string(cmdline), "\x00") {
		if processNameMatches(arg, appID) {
			return true
		}
	}
	return false
}

// processNameMatches compares a process name or argv token with an app
// identity, ignoring the path prefix. Comm names are truncated to 15
// bytes by the kernel, so a prefix match is accepted for long
// identities.
func processNameMatches(name, appID string) bool {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return false
	}
	if strings.EqualFold(name, appID) {
		return true
	}
	return len(name) == 15 && len(appID) > 15 && strings.EqualFold(name, appID[:15])
}

// Launch starts the application and returns without waiting for it to
// exit. Launched processes outlive the caller.
func (l *Launcher) Launch(appID string) error {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return fmt.Errorf("app identity is empty")
	}

	argv, err := l.commandFor(appID)
	if err != nil {
		return err
	}
	l.logger.Debug("spawning application", "app_id", appID, "argv", argv)
	if err := l.start(argv); err != nil {
		return fmt.Errorf("failed to launch %q: %w", appID, err)
	}
	return nil
}

// commandFor resolves the argv for an app identity. A configured
// template may reference {{app_id}}; without a template the identity
// itself is the command.
func (l *Launcher) commandFor(appID string) ([]string, error) {
	template, ok := lookupTemplate(l.templates, appID)
	if !ok {
		return []string{appID}, nil
	}

	argv, err := splitCommand(template)
	if err != nil {
		return nil, fmt.Errorf("bad launch command for %q: %w", appID, err)
	}
	out := make([]string, 0, len(argv))
	for _, arg := range argv {
		arg = strings.ReplaceAll(arg, "{{app_id}}", appID)
		if arg = strings.TrimSpace(arg); arg != "" {
			out = append(out, arg)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("launch command for %q is empty", appID)
	}
	return out, nil
}

func lookupTemplate(templates map[string]string, appID string) (string, bool) {
	if templates == nil {
		return "", false
	}
	if v, ok := templates[appID]; ok {
		return v, true
	}
	lower := strings.ToLower(appID)
	for k, v := range templates {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return "", false
}

func startDetached(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap in the background so launched apps never become zombies.
	go func() { _ = cmd.Wait() }()
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitCommand tokenizes a command template with shell-style quoting.
func splitCommand(s string) ([]string, error) {
	var out []string

	var buf strings.Builder
	inSingle := false
	inDouble := false
	escaped := false

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, buf.String())
		buf.Reset()
	}

	for _, r := range s {
		if escaped {
			buf.WriteRune(r)
			escaped = false
			continue
		}

		if !inSingle && r == '\\' {
			escaped = true
			continue
		}

		if !inDouble && r == '\'' {
			inSingle = !inSingle
			continue
		}
		if !inSingle && r == '"' {
			inDouble = !inDouble
			continue
		}

		if !inSingle && !inDouble {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				flush()
				continue
			}
		}

		buf.WriteRune(r)
	}

	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash in %q", s)
	}
	flush()
	return out, nil
}
