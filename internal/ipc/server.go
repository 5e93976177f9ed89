package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winsnap/internal/engine"
	"github.com/1broseidon/winsnap/internal/runtimepath"
)

// Server handles IPC requests from clients on behalf of the daemon.
type Server struct {
	socketPath   string
	listener     net.Listener
	engine       *engine.Engine
	logger       *slog.Logger
	startTime    time.Time
	reloadChan   chan struct{}
	statusFn     func() StatusData
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates an IPC server. statusFn supplies the daemon's view
// of its own state for GET_STATUS; reloadChan receives a signal for
// each RELOAD command.
func NewServer(eng *engine.Engine, statusFn func() StatusData, reloadChan chan struct{}, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		engine:     eng,
		logger:     logger,
		startTime:  time.Now(),
		reloadChan: reloadChan,
		statusFn:   statusFn,
	}, nil
}

// Start begins listening for IPC connections.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("ipc server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("ipc accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.sendError(conn, fmt.Sprintf("failed to read request: %v", err))
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}

	resp := s.dispatch(req)
	respData, err := resp.Marshal()
	if err != nil {
		s.sendError(conn, fmt.Sprintf("failed to marshal response: %v", err))
		return
	}
	respData = append(respData, '\n')
	conn.Write(respData)
}

func (s *Server) dispatch(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandRestore:
		return s.handleRestore(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	status := s.statusFn()
	status.DaemonRunning = true
	status.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
	if names, err := s.engine.ListLayouts(); err == nil {
		status.LayoutCount = len(names)
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleRestore(payload json.RawMessage) *Response {
	var req RestorePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid restore payload: %v", err))
	}
	if req.LayoutName == "" {
		return NewErrorResponse("layout_name is required")
	}

	s.logger.Info("ipc restore requested", "layout", req.LayoutName)
	report, err := s.engine.RestoreLayout(req.LayoutName)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("restore failed: %v", err))
	}

	counts := report.Counts()
	resp, _ := NewOKResponse(RestoreData{
		RunID:    report.RunID,
		Restored: counts.Restored,
		NotFound: counts.NotFound,
		Failed:   counts.Failed,
	})
	return resp
}

func (s *Server) handleReload() *Response {
	select {
	case s.reloadChan <- struct{}{}:
	default:
		// A reload is already pending.
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
