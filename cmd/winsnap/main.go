package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winsnap/internal/config"
	"github.com/1broseidon/winsnap/internal/daemon"
	"github.com/1broseidon/winsnap/internal/engine"
	"github.com/1broseidon/winsnap/internal/ipc"
	"github.com/1broseidon/winsnap/internal/launch"
	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/mcp"
	"github.com/1broseidon/winsnap/internal/notify"
	"github.com/1broseidon/winsnap/internal/restore"
	"github.com/1broseidon/winsnap/internal/store"
	"github.com/1broseidon/winsnap/internal/x11"
)

// Exit codes, stable for scripting.
const (
	exitOK         = 0
	exitOther      = 1
	exitUsage      = 2
	exitValidation = 3
	exitNotFound   = 4
	exitPermission = 5
	exitStorage    = 6
	exitTopology   = 7
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(exitOK)
	}

	switch os.Args[1] {
	case "save":
		os.Exit(runSave(os.Args[2:]))
	case "restore":
		os.Exit(runRestore(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "delete":
		os.Exit(runDelete(os.Args[2:]))
	case "show":
		os.Exit(runShow(os.Args[2:]))
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(exitOK)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(exitUsage)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winsnap <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  save <name>         Capture the current window layout")
	fmt.Fprintln(w, "  restore <name>      Restore a stored window layout")
	fmt.Fprintln(w, "  list                List stored layouts")
	fmt.Fprintln(w, "  show <name>         Show a stored layout's windows")
	fmt.Fprintln(w, "  delete <name>       Delete a stored layout")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  daemon              Start the background watcher (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winsnap <command> --help' for command-specific options.")
}

// exitCode maps an operation error to the stable exit codes.
func exitCode(err error) int {
	var verr *layout.ValidationError
	var terr *restore.TopologyError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &verr):
		return exitValidation
	case errors.Is(err, store.ErrNotFound):
		return exitNotFound
	case errors.Is(err, restore.ErrPermission):
		return exitPermission
	case errors.As(err, &terr):
		return exitTopology
	default:
		return exitOther
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// buildEngine assembles the engine from config. A failed X11 connection
// leaves the engine without a desktop; operations that need one fail
// with the permission error.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, func()) {
	dir := cfg.LayoutsDir
	cleanup := func() {}
	if dir == "" {
		var err error
		dir, err = store.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitStorage)
		}
	}

	var desktop engine.Desktop
	if conn, err := x11.NewConnection(); err == nil {
		desktop = conn
		cleanup = conn.Close
	} else {
		logger.Warn("no display session", "error", err)
	}

	launcher := launch.New(cfg.LaunchCommands, logger)
	notifier := notify.New(cfg.Notifications)
	return engine.New(cfg, store.New(dir), desktop, launcher, notifier, logger), cleanup
}

func runSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap save [options] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Capture the current window layout under <name>.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}
	logger := newLogger(*verbose)
	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()

	saved, err := eng.SaveLayout(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	fmt.Printf("Saved layout %q with %d windows\n", saved.Name, len(saved.Windows))
	return exitOK
}

func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	verbose := fs.Bool("v", false, "Verbose logging")
	asJSON := fs.Bool("json", false, "Print the restore report as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap restore [options] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Restore a stored window layout.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}
	logger := newLogger(*verbose)
	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()

	report, err := eng.RestoreLayout(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	if *asJSON {
		printReportJSON(report)
	} else {
		printReport(report)
	}
	if !report.AllRestored() {
		return exitOther
	}
	return exitOK
}

func printReport(report *restore.Report) {
	counts := report.Counts()
	fmt.Printf("Layout %q: %d restored, %d not found, %d failed (run %s)\n",
		report.Layout, counts.Restored, counts.NotFound, counts.Failed, report.RunID)

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	for _, o := range report.Outcomes {
		status := o.Kind.String()
		if isTTY {
			switch o.Kind {
			case restore.OutcomeRestored:
				status = "\x1b[32m" + status + "\x1b[0m"
			default:
				status = "\x1b[31m" + status + "\x1b[0m"
			}
		}
		line := fmt.Sprintf("  %-14s %s — %s", status, o.Window.AppName, o.Window.Title)
		if o.Reason != "" {
			line += fmt.Sprintf(" (%s)", o.Reason)
		}
		fmt.Println(line)
	}
	for _, appID := range report.LaunchTimeouts {
		fmt.Printf("  launch timeout: %s\n", appID)
	}
}

func printReportJSON(report *restore.Report) {
	type windowOut struct {
		AppName   string `json:"app_name"`
		Title     string `json:"title"`
		Outcome   string `json:"outcome"`
		Reason    string `json:"reason,omitempty"`
		DisplayID string `json:"display_id"`
	}
	out := struct {
		RunID          string      `json:"run_id"`
		Layout         string      `json:"layout"`
		Restored       int         `json:"restored"`
		NotFound       int         `json:"not_found"`
		Failed         int         `json:"failed"`
		Windows        []windowOut `json:"windows"`
		LaunchTimeouts []string    `json:"launch_timeouts,omitempty"`
	}{
		RunID:          report.RunID,
		Layout:         report.Layout,
		LaunchTimeouts: report.LaunchTimeouts,
	}
	counts := report.Counts()
	out.Restored, out.NotFound, out.Failed = counts.Restored, counts.NotFound, counts.Failed
	for _, o := range report.Outcomes {
		out.Windows = append(out.Windows, windowOut{
			AppName:   o.Window.AppName,
			Title:     o.Window.Title,
			Outcome:   o.Kind.String(),
			Reason:    o.Reason,
			DisplayID: o.DisplayID,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap list")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List stored layouts.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	st, err := openStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitStorage
	}
	names, err := st.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitStorage
	}
	if len(names) == 0 {
		fmt.Println("No layouts saved.")
		return exitOK
	}
	for _, name := range names {
		if l, err := st.Load(name); err == nil {
			fmt.Printf("%-24s %3d windows  updated %s\n",
				name, len(l.Windows), l.UpdatedAt.Local().Format("2006-01-02 15:04"))
		} else {
			fmt.Printf("%-24s (unreadable: %v)\n", name, err)
		}
	}
	return exitOK
}

func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	asJSON := fs.Bool("json", false, "Print the layout record as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap show [options] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the windows of a stored layout.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	st, err := openStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitStorage
	}
	l, err := st.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(l)
		return exitOK
	}

	fmt.Printf("Layout %q (created %s, updated %s)\n",
		l.Name,
		l.CreatedAt.Local().Format("2006-01-02 15:04"),
		l.UpdatedAt.Local().Format("2006-01-02 15:04"))
	for i, w := range l.Windows {
		extra := ""
		if w.Minimized {
			extra = " [minimized]"
		} else if w.Hidden {
			extra = " [hidden]"
		}
		fmt.Printf("  %2d. %s — %s  %gx%g at (%g,%g) on %s, %s%s\n",
			i+1, w.AppName, w.Title,
			w.Frame.Width, w.Frame.Height, w.Frame.X, w.Frame.Y,
			w.DisplayID, w.Level, extra)
	}
	return exitOK
}

func runDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap delete <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Delete a stored layout.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	st, err := openStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitStorage
	}
	name := fs.Arg(0)
	if err := st.Delete(name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	fmt.Printf("Deleted layout %q\n", name)
	return exitOK
}

// openStore builds just the layout store, without a display connection.
func openStore(configPath string) (*store.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	dir := cfg.LayoutsDir
	if dir == "" {
		if dir, err = store.DefaultDir(); err != nil {
			return nil, err
		}
	}
	return store.New(dir), nil
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap daemon [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the topology watcher in the foreground.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	cfgPath := *configPath
	if cfgPath == "" {
		var err error
		if cfgPath, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitOther
		}
	}
	cfg, err := config.LoadFromPath(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: func() slog.Level {
			if *verbose {
				return slog.LevelDebug
			}
			return slog.LevelInfo
		}(),
	}))

	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()
	if !eng.HasDesktop() {
		fmt.Fprintln(os.Stderr, "Error: no display session available")
		return exitPermission
	}

	reloadChan := make(chan struct{}, 1)
	d := daemon.New(cfg, eng, cfgPath, reloadChan, logger)

	statusFn := func() ipc.StatusData {
		c := d.Config()
		return ipc.StatusData{
			AutoRestore:       c.AutoRestore,
			AutoRestoreLayout: c.AutoRestoreLayout,
			TopologySignature: d.LastSignature(),
		}
	}
	srv, err := ipc.NewServer(eng, statusFn, reloadChan, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}
	defer srv.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	d.Run(ctx)
	return exitOK
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winsnap status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}

	fmt.Println("Daemon: running")
	fmt.Printf("Uptime: %ds\n", status.UptimeSeconds)
	fmt.Printf("Stored layouts: %d\n", status.LayoutCount)
	if status.AutoRestore {
		fmt.Printf("Auto-restore: on (%s)\n", status.AutoRestoreLayout)
	} else {
		fmt.Println("Auto-restore: off")
	}
	if status.TopologySignature != "" {
		fmt.Printf("Topology: %s\n", status.TopologySignature)
	}
	return exitOK
}

func runConfig(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: winsnap config <validate|print> [options]")
		return exitUsage
	}
	sub := args[0]

	fs := flag.NewFlagSet("config "+sub, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	switch sub {
	case "validate":
		if _, err := loadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Config invalid: %v\n", err)
			return exitValidation
		}
		fmt.Println("Config OK")
		return exitOK
	case "print":
		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitOther
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitOther
		}
		os.Stdout.Write(data)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", sub)
		return exitUsage
	}
}

func runMCP(args []string) int {
	if len(args) < 1 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: winsnap mcp serve")
		return exitUsage
	}

	fs := flag.NewFlagSet("mcp serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitOther
	}

	// MCP logs go to stderr; stdout carries the protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := mcp.NewServer(eng).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		return exitOther
	}
	return exitOK
}
