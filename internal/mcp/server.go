// Package mcp exposes the layout operations as MCP tools over stdio so
// AI assistants can save and restore window arrangements.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winsnap/internal/engine"
)

const (
	ServerName    = "winsnap"
	ServerVersion = "0.1.0"
)

// Server is the MCP server over the layout engine.
type Server struct {
	mcpServer *mcpsdk.Server
	engine    *engine.Engine
}

// NewServer creates an MCP server backed by the given engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{engine: eng}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_layout",
		Description: "Capture the current window arrangement (positions, sizes, displays, stacking and visibility) and store it under the given name. Overwrites an existing layout with the same name.",
	}, s.handleSaveLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restore_layout",
		Description: "Restore a stored window layout: launch missing applications, then move each matched window back to its captured position. Returns a per-window outcome report.",
	}, s.handleRestoreLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_layouts",
		Description: "List the names of all stored window layouts.",
	}, s.handleListLayouts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_layout",
		Description: "Delete a stored window layout by name.",
	}, s.handleDeleteLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_layout",
		Description: "Show the full contents of a stored layout: every captured window with its frame, display, stacking level and visibility.",
	}, s.handleShowLayout)
}
