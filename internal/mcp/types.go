package mcp

// SaveLayoutInput is the input for the save_layout tool.
type SaveLayoutInput struct {
	Name string `json:"name" jsonschema:"required,Name for the layout snapshot. Must not contain path separators or shell metacharacters."`
}

// SaveLayoutOutput is the output for the save_layout tool.
type SaveLayoutOutput struct {
	Name        string `json:"name"`
	WindowCount int    `json:"window_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// RestoreLayoutInput is the input for the restore_layout tool.
type RestoreLayoutInput struct {
	Name string `json:"name" jsonschema:"required,Name of the stored layout to restore"`
}

// WindowOutcome describes the restore result for one window.
type WindowOutcome struct {
	AppName   string `json:"app_name"`
	Title     string `json:"title"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	DisplayID string `json:"display_id"`
}

// RestoreLayoutOutput is the output for the restore_layout tool.
type RestoreLayoutOutput struct {
	RunID    string          `json:"run_id"`
	Restored int             `json:"restored"`
	NotFound int             `json:"not_found"`
	Failed   int             `json:"failed"`
	Windows  []WindowOutcome `json:"windows"`
}

// ListLayoutsInput is the input for the list_layouts tool.
type ListLayoutsInput struct{}

// ListLayoutsOutput is the output for the list_layouts tool.
type ListLayoutsOutput struct {
	Layouts []string `json:"layouts"`
}

// DeleteLayoutInput is the input for the delete_layout tool.
type DeleteLayoutInput struct {
	Name string `json:"name" jsonschema:"required,Name of the stored layout to delete"`
}

// DeleteLayoutOutput is the output for the delete_layout tool.
type DeleteLayoutOutput struct {
	Deleted bool `json:"deleted"`
}

// ShowLayoutInput is the input for the show_layout tool.
type ShowLayoutInput struct {
	Name string `json:"name" jsonschema:"required,Name of the stored layout to inspect"`
}

// LayoutWindow describes one window in a stored layout.
type LayoutWindow struct {
	AppName   string  `json:"app_name"`
	AppID     string  `json:"app_id"`
	Title     string  `json:"title"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	DisplayID string  `json:"display_id"`
	Level     string  `json:"window_level"`
	Minimized bool    `json:"is_minimized"`
	Hidden    bool    `json:"is_hidden"`
}

// ShowLayoutOutput is the output for the show_layout tool.
type ShowLayoutOutput struct {
	Name      string         `json:"name"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	Windows   []LayoutWindow `json:"windows"`
}
