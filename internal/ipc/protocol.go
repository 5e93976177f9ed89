// Package ipc carries the line-delimited JSON protocol between the
// winsnap CLI and the daemon over a unix socket.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus CommandType = "GET_STATUS"
	CommandRestore   CommandType = "RESTORE"
	CommandReload    CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning     bool   `json:"daemon_running"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	AutoRestore       bool   `json:"auto_restore"`
	AutoRestoreLayout string `json:"auto_restore_layout,omitempty"`
	TopologySignature string `json:"topology_signature,omitempty"`
	LayoutCount       int    `json:"layout_count"`
}

// RestorePayload represents the payload for the RESTORE command
type RestorePayload struct {
	LayoutName string `json:"layout_name"`
}

// RestoreData summarizes a restore triggered through the daemon
type RestoreData struct {
	RunID    string `json:"run_id"`
	Restored int    `json:"restored"`
	NotFound int    `json:"not_found"`
	Failed   int    `json:"failed"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
