package layout

import (
	"fmt"
	"math"
	"strings"
)

// ForbiddenNameChars are rejected in layout names: path separators plus
// characters that are unsafe in filenames on common filesystems.
const ForbiddenNameChars = `/\:*?"<>|`

// ValidationError reports the first rule violation found in a layout.
// Window is the index of the offending window, or -1 for layout-level
// fields.
type ValidationError struct {
	Field  string
	Window int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Window < 0 {
		return fmt.Sprintf("invalid layout: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid layout: window %d: %s: %s", e.Window, e.Field, e.Reason)
}

// ValidateName checks a layout name: non-empty after trimming and free
// of forbidden characters.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Field: "name", Window: -1, Reason: "empty after trimming"}
	}
	if i := strings.IndexAny(trimmed, ForbiddenNameChars); i >= 0 {
		return &ValidationError{
			Field:  "name",
			Window: -1,
			Reason: fmt.Sprintf("contains forbidden character %q", trimmed[i]),
		}
	}
	return nil
}

// Validate checks a layout and every contained window. It stops at the
// first violation so the error points at exactly one field.
func Validate(l *Layout) error {
	if l == nil {
		return &ValidationError{Field: "layout", Window: -1, Reason: "nil"}
	}
	if err := ValidateName(l.Name); err != nil {
		return err
	}
	for i, w := range l.Windows {
		if err := validateWindow(i, w); err != nil {
			return err
		}
	}
	return nil
}

func validateWindow(index int, w WindowState) error {
	if strings.TrimSpace(w.AppName) == "" {
		return &ValidationError{Field: "app_name", Window: index, Reason: "empty"}
	}
	if strings.TrimSpace(w.AppID) == "" {
		return &ValidationError{Field: "app_id", Window: index, Reason: "empty"}
	}
	if strings.TrimSpace(w.Title) == "" {
		return &ValidationError{Field: "title", Window: index, Reason: "empty"}
	}
	if strings.TrimSpace(w.DisplayID) == "" {
		return &ValidationError{Field: "display_id", Window: index, Reason: "empty"}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"frame.x", w.Frame.X},
		{"frame.y", w.Frame.Y},
		{"frame.width", w.Frame.Width},
		{"frame.height", w.Frame.Height},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ValidationError{Field: f.name, Window: index, Reason: "not finite"}
		}
	}
	if w.Frame.Width < 0 {
		return &ValidationError{Field: "frame.width", Window: index, Reason: "negative"}
	}
	if w.Frame.Height < 0 {
		return &ValidationError{Field: "frame.height", Window: index, Reason: "negative"}
	}
	return nil
}
