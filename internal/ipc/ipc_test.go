package ipc

import (
	"strings"
	"testing"

	"github.com/1broseidon/winsnap/internal/config"
	"github.com/1broseidon/winsnap/internal/engine"
	"github.com/1broseidon/winsnap/internal/notify"
	"github.com/1broseidon/winsnap/internal/store"
)

func startTestServer(t *testing.T) (*Server, chan struct{}) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	eng := engine.New(config.DefaultConfig(), store.New(t.TempDir()), nil, nil, notify.New(false), nil)
	reload := make(chan struct{}, 1)
	statusFn := func() StatusData {
		return StatusData{AutoRestore: true, AutoRestoreLayout: "desk", TopologySignature: "eDP-1"}
	}

	srv, err := NewServer(eng, statusFn, reload, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, reload
}

func TestStatusRoundTrip(t *testing.T) {
	startTestServer(t)

	status, err := NewClient().GetStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if !status.DaemonRunning {
		t.Error("daemon_running should be true")
	}
	if !status.AutoRestore || status.AutoRestoreLayout != "desk" {
		t.Errorf("daemon state not passed through: %+v", status)
	}
	if status.TopologySignature != "eDP-1" {
		t.Errorf("topology signature = %q", status.TopologySignature)
	}
}

func TestReloadSignalsDaemon(t *testing.T) {
	_, reload := startTestServer(t)

	if err := NewClient().Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	select {
	case <-reload:
	default:
		t.Fatal("reload signal not delivered")
	}
}

func TestRestoreErrorsAreReported(t *testing.T) {
	startTestServer(t)

	// The test engine has no desktop session and no stored layouts.
	if _, err := NewClient().Restore("nope"); err == nil {
		t.Fatal("expected error for unknown layout")
	} else if !strings.Contains(err.Error(), "restore failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRestoreRequiresLayoutName(t *testing.T) {
	startTestServer(t)

	if _, err := NewClient().Restore(""); err == nil ||
		!strings.Contains(err.Error(), "layout_name is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientWithoutServer(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	if err := NewClient().Ping(); err == nil {
		t.Fatal("ping should fail without a daemon")
	}
}
