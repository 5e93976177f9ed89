package layout

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func validWindow() WindowState {
	return WindowState{
		AppName:   "Editor",
		AppID:     "editor",
		Title:     "main.go",
		Frame:     Frame{X: 10, Y: 20, Width: 300, Height: 200},
		DisplayID: "D1",
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "work", false},
		{"with spaces inside", "home office", false},
		{"unicode", "büro", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"slash", "bad/name", true},
		{"backslash", `bad\name`, true},
		{"colon", "bad:name", true},
		{"asterisk", "bad*name", true},
		{"question mark", "bad?name", true},
		{"quote", `bad"name`, true},
		{"angle brackets", "bad<name>", true},
		{"pipe", "bad|name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WindowFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*WindowState)
		wantField string
	}{
		{"empty app name", func(w *WindowState) { w.AppName = " " }, "app_name"},
		{"empty app id", func(w *WindowState) { w.AppID = "" }, "app_id"},
		{"empty title", func(w *WindowState) { w.Title = "\t" }, "title"},
		{"empty display id", func(w *WindowState) { w.DisplayID = "" }, "display_id"},
		{"nan x", func(w *WindowState) { w.Frame.X = math.NaN() }, "frame.x"},
		{"inf y", func(w *WindowState) { w.Frame.Y = math.Inf(1) }, "frame.y"},
		{"nan width", func(w *WindowState) { w.Frame.Width = math.NaN() }, "frame.width"},
		{"negative width", func(w *WindowState) { w.Frame.Width = -1 }, "frame.width"},
		{"negative height", func(w *WindowState) { w.Frame.Height = -0.5 }, "frame.height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWindow()
			tt.mutate(&w)
			l := &Layout{Name: "work", Windows: []WindowState{validWindow(), w}}

			err := Validate(l)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
			if verr.Window != 1 {
				t.Errorf("window index = %d, want 1", verr.Window)
			}
		})
	}
}

func TestValidate_StopsAtFirstError(t *testing.T) {
	bad := validWindow()
	bad.AppName = ""
	bad.Title = ""
	l := &Layout{Name: "work", Windows: []WindowState{bad}}

	err := Validate(l)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "app_name" {
		t.Errorf("expected first violation app_name, got %q", verr.Field)
	}
}

func TestValidate_ValidLayout(t *testing.T) {
	l := &Layout{Name: "work", Windows: []WindowState{validWindow()}}
	if err := Validate(l); err != nil {
		t.Fatalf("expected valid layout, got %v", err)
	}
}

func TestValidate_ZeroSizeFrameAllowed(t *testing.T) {
	w := validWindow()
	w.Frame.Width = 0
	w.Frame.Height = 0
	l := &Layout{Name: "work", Windows: []WindowState{w}}
	if err := Validate(l); err != nil {
		t.Fatalf("zero-size frame should validate, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "title", Window: 3, Reason: "empty"}
	msg := err.Error()
	if !strings.Contains(msg, "window 3") || !strings.Contains(msg, "title") {
		t.Errorf("message should locate the violation, got %q", msg)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"normal", LevelNormal},
		{"floating", LevelFloating},
		{"modal", LevelModal},
		{"system-chrome", LevelSystemChrome},
		{"", LevelNormal},
		{"garbage", LevelNormal},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestWindowState_Visibility(t *testing.T) {
	tests := []struct {
		name      string
		minimized bool
		hidden    bool
		want      Visibility
	}{
		{"shown", false, false, VisibilityShown},
		{"hidden", false, true, VisibilityHidden},
		{"minimized", true, false, VisibilityMinimized},
		{"minimized wins over hidden", true, true, VisibilityMinimized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWindow()
			w.Minimized = tt.minimized
			w.Hidden = tt.hidden
			if got := w.Visibility(); got != tt.want {
				t.Errorf("Visibility() = %v, want %v", got, tt.want)
			}
		})
	}
}
