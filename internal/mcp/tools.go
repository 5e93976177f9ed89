package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/restore"
)

func (s *Server) handleSaveLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args SaveLayoutInput) (*mcpsdk.CallToolResult, SaveLayoutOutput, error) {
	saved, err := s.engine.SaveLayout(args.Name)
	if err != nil {
		return nil, SaveLayoutOutput{}, err
	}
	return nil, SaveLayoutOutput{
		Name:        saved.Name,
		WindowCount: len(saved.Windows),
		CreatedAt:   saved.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   saved.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (s *Server) handleRestoreLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args RestoreLayoutInput) (*mcpsdk.CallToolResult, RestoreLayoutOutput, error) {
	report, err := s.engine.RestoreLayout(args.Name)
	if err != nil {
		return nil, RestoreLayoutOutput{}, err
	}
	return nil, restoreOutput(report), nil
}

func (s *Server) handleListLayouts(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListLayoutsInput) (*mcpsdk.CallToolResult, ListLayoutsOutput, error) {
	names, err := s.engine.ListLayouts()
	if err != nil {
		return nil, ListLayoutsOutput{}, err
	}
	return nil, ListLayoutsOutput{Layouts: names}, nil
}

func (s *Server) handleDeleteLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args DeleteLayoutInput) (*mcpsdk.CallToolResult, DeleteLayoutOutput, error) {
	if err := s.engine.DeleteLayout(args.Name); err != nil {
		return nil, DeleteLayoutOutput{}, err
	}
	return nil, DeleteLayoutOutput{Deleted: true}, nil
}

func (s *Server) handleShowLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args ShowLayoutInput) (*mcpsdk.CallToolResult, ShowLayoutOutput, error) {
	l, err := s.engine.ShowLayout(args.Name)
	if err != nil {
		return nil, ShowLayoutOutput{}, err
	}
	return nil, showOutput(l), nil
}

func restoreOutput(report *restore.Report) RestoreLayoutOutput {
	counts := report.Counts()
	out := RestoreLayoutOutput{
		RunID:    report.RunID,
		Restored: counts.Restored,
		NotFound: counts.NotFound,
		Failed:   counts.Failed,
		Windows:  make([]WindowOutcome, 0, len(report.Outcomes)),
	}
	for _, o := range report.Outcomes {
		out.Windows = append(out.Windows, WindowOutcome{
			AppName:   o.Window.AppName,
			Title:     o.Window.Title,
			Outcome:   o.Kind.String(),
			Reason:    o.Reason,
			DisplayID: o.DisplayID,
		})
	}
	return out
}

func showOutput(l *layout.Layout) ShowLayoutOutput {
	out := ShowLayoutOutput{
		Name:      l.Name,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
		UpdatedAt: l.UpdatedAt.Format(time.RFC3339),
		Windows:   make([]LayoutWindow, 0, len(l.Windows)),
	}
	for _, w := range l.Windows {
		out.Windows = append(out.Windows, LayoutWindow{
			AppName:   w.AppName,
			AppID:     w.AppID,
			Title:     w.Title,
			X:         w.Frame.X,
			Y:         w.Frame.Y,
			Width:     w.Frame.Width,
			Height:    w.Frame.Height,
			DisplayID: w.DisplayID,
			Level:     w.Level.String(),
			Minimized: w.Minimized,
			Hidden:    w.Hidden,
		})
	}
	return out
}
