package engine

import (
	"errors"
	"testing"

	"github.com/1broseidon/winsnap/internal/capture"
	"github.com/1broseidon/winsnap/internal/config"
	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/notify"
	"github.com/1broseidon/winsnap/internal/restore"
	"github.com/1broseidon/winsnap/internal/store"
)

// fakeDesktop is an in-memory stand-in for the X11 connection.
type fakeDesktop struct {
	displays []restore.Display
	metas    []capture.WindowMeta
	live     []restore.LiveWindow
	applied  []restore.ApplyTarget
	sig      string
}

func (f *fakeDesktop) ScanWindows() ([]capture.WindowMeta, error) { return f.metas, nil }

func (f *fakeDesktop) Refresh() error { return nil }

func (f *fakeDesktop) Displays() []restore.Display { return f.displays }

func (f *fakeDesktop) MainDisplay() (restore.Display, bool) {
	for _, d := range f.displays {
		if d.Main {
			return d, true
		}
	}
	return restore.Display{}, false
}

func (f *fakeDesktop) DisplayByID(id string) (restore.Display, bool) {
	for _, d := range f.displays {
		if d.ID == id {
			return d, true
		}
	}
	return restore.Display{}, false
}

func (f *fakeDesktop) ToAbsolute(displayID string, x, y float64) (float64, float64, bool) {
	d, ok := f.DisplayByID(displayID)
	if !ok {
		return 0, 0, false
	}
	return d.Frame.X + x, d.Frame.Y + y, true
}

func (f *fakeDesktop) Enumerate() ([]restore.LiveWindow, error) { return f.live, nil }

func (f *fakeDesktop) Apply(target restore.ApplyTarget) error {
	f.applied = append(f.applied, target)
	return nil
}

func (f *fakeDesktop) TopologySignature() string { return f.sig }

type fakeLauncher struct{}

func (fakeLauncher) IsRunning(string) bool { return true }
func (fakeLauncher) Launch(string) error   { return nil }

func testDesktop() *fakeDesktop {
	return &fakeDesktop{
		displays: []restore.Display{
			{ID: "eDP-1", Frame: layout.Frame{Width: 1920, Height: 1080}, Main: true},
		},
		metas: []capture.WindowMeta{
			{AppName: "Editor", AppID: "editor", Title: "main.go",
				Frame: layout.Frame{X: 100, Y: 50, Width: 800, Height: 600}},
		},
		live: []restore.LiveWindow{
			{ID: 7, AppName: "Editor", AppID: "editor", Title: "main.go",
				Frame: layout.Frame{X: 5, Y: 5, Width: 300, Height: 200}},
		},
		sig: "eDP-1:0,0,1920x1080",
	}
}

func testEngine(t *testing.T, desktop Desktop) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SettleDelayMs = 0
	cfg.WindowPauseMs = 0
	return New(cfg, store.New(t.TempDir()), desktop, fakeLauncher{}, notify.New(false), nil)
}

func TestSaveThenRestore(t *testing.T) {
	desktop := testDesktop()
	e := testEngine(t, desktop)

	saved, err := e.SaveLayout("work")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(saved.Windows) != 1 || saved.Windows[0].DisplayID != "eDP-1" {
		t.Fatalf("unexpected snapshot: %+v", saved.Windows)
	}

	report, err := e.RestoreLayout("work")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !report.AllRestored() {
		t.Fatalf("restore incomplete: %+v", report.Outcomes)
	}
	if len(desktop.applied) != 1 {
		t.Fatalf("applied %d windows, want 1", len(desktop.applied))
	}
	// Captured coords were display-local; apply must be absolute again.
	if got := desktop.applied[0].Frame; got.X != 100 || got.Y != 50 {
		t.Errorf("applied frame = (%v,%v), want (100,50)", got.X, got.Y)
	}
}

func TestSaveWithoutDesktop(t *testing.T) {
	e := testEngine(t, nil)
	if _, err := e.SaveLayout("work"); !errors.Is(err, restore.ErrPermission) {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
}

func TestRestoreWithoutDesktop(t *testing.T) {
	desktop := testDesktop()
	e := testEngine(t, desktop)
	if _, err := e.SaveLayout("work"); err != nil {
		t.Fatalf("save: %v", err)
	}

	headless := testEngine(t, nil)
	// Point the headless engine at the same store directory.
	headless.store = e.store
	if _, err := headless.RestoreLayout("work"); !errors.Is(err, restore.ErrPermission) {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
}

func TestRestoreUnknownLayout(t *testing.T) {
	e := testEngine(t, testDesktop())
	if _, err := e.RestoreLayout("nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListShowDelete(t *testing.T) {
	e := testEngine(t, testDesktop())
	if _, err := e.SaveLayout("work"); err != nil {
		t.Fatalf("save: %v", err)
	}

	names, err := e.ListLayouts()
	if err != nil || len(names) != 1 || names[0] != "work" {
		t.Fatalf("list = %v, %v", names, err)
	}

	l, err := e.ShowLayout("work")
	if err != nil || l.Name != "work" {
		t.Fatalf("show = %+v, %v", l, err)
	}

	if err := e.DeleteLayout("work"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := e.DeleteLayout("work"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestTopologySignature(t *testing.T) {
	e := testEngine(t, testDesktop())
	sig, err := e.TopologySignature()
	if err != nil || sig == "" {
		t.Fatalf("signature = %q, %v", sig, err)
	}

	headless := testEngine(t, nil)
	if _, err := headless.TopologySignature(); !errors.Is(err, restore.ErrPermission) {
		t.Fatalf("err = %v, want ErrPermission", err)
	}
}
