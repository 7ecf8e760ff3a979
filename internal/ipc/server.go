package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/barkeep/internal/activation"
	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/config"
	"github.com/1broseidon/barkeep/internal/daemon"
	"github.com/1broseidon/barkeep/internal/history"
	"github.com/1broseidon/barkeep/internal/runtimepath"
)

const requestTimeout = 10 * time.Second

// Engine is the daemon surface the IPC server drives. *daemon.Controller
// implements it.
type Engine interface {
	Status(ctx context.Context) (daemon.Status, error)
	Apps(ctx context.Context) ([]apps.Application, error)
	Suggest(ctx context.Context) ([]apps.Application, error)
	Refresh(ctx context.Context, force bool) (bool, error)
	Activate(ctx context.Context, identity string) (activation.Outcome, error)
	Restart(ctx context.Context, identities ...string) ([]string, error)
	RestartAll(ctx context.Context) ([]string, error)
	Move(ctx context.Context, source, target string) (bool, error)
	DragBegin(ctx context.Context, source string, x, y float64) (bool, error)
	DragMotion(ctx context.Context, x, y float64) (bool, error)
	DragDrop(ctx context.Context, target string) (bool, error)
	DragCancel(ctx context.Context) error
	SetMenuOpen(ctx context.Context, open bool) error
	Reload(ctx context.Context, settings daemon.Settings) error
}

var _ Engine = (*daemon.Controller)(nil)

// HistoryReader serves HISTORY queries.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	ForIdentity(ctx context.Context, identity string, limit int) ([]history.Entry, error)
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	// ConfigPath is reloaded on RELOAD; empty selects the default path.
	ConfigPath string
	Config     *config.Config
	Engine     Engine
	History    HistoryReader
	Logger     *slog.Logger
	// OnReload is called after a successful RELOAD.
	OnReload func(*config.Config)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	configPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	engine       Engine
	history      HistoryReader
	onReload     func(*config.Config)
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("ipc server requires an engine")
	}
	socketPath := opts.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		configPath: opts.ConfigPath,
		cfg:        cfg,
		engine:     opts.Engine,
		history:    opts.History,
		onReload:   opts.OnReload,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

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
			s.logger.Warn("IPC accept error", "error", err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	resp := s.handleCommand(ctx, req)
	cancel()

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "command", string(req.Command), "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", string(req.Command))

	switch req.Command {
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandListApps:
		return appsResponse(s.engine.Apps(ctx))
	case CommandSuggest:
		return appsResponse(s.engine.Suggest(ctx))
	case CommandRefresh:
		return s.handleRefresh(ctx, req.Payload)
	case CommandActivate:
		return s.handleActivate(ctx, req.Payload)
	case CommandRestart:
		return s.handleRestart(ctx, req.Payload)
	case CommandRestartAll:
		return restartResponse(s.engine.RestartAll(ctx))
	case CommandMove:
		return s.handleMove(ctx, req.Payload)
	case CommandMenuOpen:
		return okOrError(s.engine.SetMenuOpen(ctx, true))
	case CommandMenuClose:
		return okOrError(s.engine.SetMenuOpen(ctx, false))
	case CommandDragBegin:
		return s.handleDragBegin(ctx, req.Payload)
	case CommandDragMotion:
		return s.handleDragMotion(ctx, req.Payload)
	case CommandDragDrop:
		return s.handleDragDrop(ctx, req.Payload)
	case CommandDragCancel:
		return okOrError(s.engine.DragCancel(ctx))
	case CommandHistory:
		return s.handleHistory(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload re-reads the config file and pushes new settings into the
// engine.
func (s *Server) handleReload(ctx context.Context) *Response {
	s.logger.Info("IPC: received RELOAD")

	var (
		res *config.LoadResult
		err error
	)
	if s.configPath != "" {
		res, err = config.LoadFromPath(s.configPath)
	} else {
		res, err = config.LoadWithSources()
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	if err := s.engine.Reload(ctx, daemon.SettingsFromConfig(res.Config)); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to apply config: %v", err))
	}

	s.UpdateConfig(res.Config)
	if s.onReload != nil {
		s.onReload(res.Config)
	}

	s.logger.Info("IPC: config reloaded")
	return mustOK(nil)
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.engine.Status(ctx)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return mustOK(StatusData{
		Status:        st,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		ConfigPath:    s.configPath,
		History:       s.history != nil,
	})
}

func (s *Server) handleRefresh(ctx context.Context, payload json.RawMessage) *Response {
	var req RefreshPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid refresh payload: %v", err))
	}
	published, err := s.engine.Refresh(ctx, req.Force)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Refresh failed: %v", err))
	}
	list, err := s.engine.Apps(ctx)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return mustOK(RefreshData{Published: published, Count: len(list)})
}

func (s *Server) handleActivate(ctx context.Context, payload json.RawMessage) *Response {
	var req IdentityPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	if req.Identity == "" {
		return NewErrorResponse("identity is required")
	}
	outcome, err := s.engine.Activate(ctx, req.Identity)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return mustOK(ActivateData{Identity: req.Identity, Outcome: outcome})
}

func (s *Server) handleRestart(ctx context.Context, payload json.RawMessage) *Response {
	var req RestartPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid restart payload: %v", err))
	}
	if len(req.Identities) == 0 {
		return NewErrorResponse("at least one identity is required")
	}
	return restartResponse(s.engine.Restart(ctx, req.Identities...))
}

func (s *Server) handleMove(ctx context.Context, payload json.RawMessage) *Response {
	var req MovePayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	if req.Source == "" || req.Target == "" {
		return NewErrorResponse("source and target are required")
	}
	moved, err := s.engine.Move(ctx, req.Source, req.Target)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.moveResponse(ctx, moved)
}

func (s *Server) handleDragBegin(ctx context.Context, payload json.RawMessage) *Response {
	var req DragPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid drag payload: %v", err))
	}
	accepted, err := s.engine.DragBegin(ctx, req.Source, req.X, req.Y)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return mustOK(DragData{Accepted: accepted})
}

func (s *Server) handleDragMotion(ctx context.Context, payload json.RawMessage) *Response {
	var req DragPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid drag payload: %v", err))
	}
	started, err := s.engine.DragMotion(ctx, req.X, req.Y)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	st, err := s.engine.Status(ctx)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return mustOK(DragData{Accepted: started, Dragging: st.Dragging})
}

func (s *Server) handleDragDrop(ctx context.Context, payload json.RawMessage) *Response {
	var req MovePayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid drop payload: %v", err))
	}
	moved, err := s.engine.DragDrop(ctx, req.Target)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.moveResponse(ctx, moved)
}

func (s *Server) handleHistory(ctx context.Context, payload json.RawMessage) *Response {
	if s.history == nil {
		return NewErrorResponse("history is disabled")
	}
	var req HistoryPayload
	if err := decodePayload(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid history payload: %v", err))
	}

	var (
		entries []history.Entry
		err     error
	)
	if req.Identity != "" {
		entries, err = s.history.ForIdentity(ctx, req.Identity, req.Limit)
	} else {
		entries, err = s.history.Recent(ctx, req.Limit)
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read history: %v", err))
	}
	return mustOK(HistoryData{Entries: entries})
}

func (s *Server) moveResponse(ctx context.Context, moved bool) *Response {
	data := MoveData{Moved: moved}
	if moved {
		list, err := s.engine.Apps(ctx)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		data.Order = apps.Identities(list)
	}
	return mustOK(data)
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func mustOK(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func okOrError(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return mustOK(nil)
}

func appsResponse(list []apps.Application, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if list == nil {
		list = []apps.Application{}
	}
	return mustOK(AppsData{Apps: list})
}

func restartResponse(ids []string, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	if ids == nil {
		ids = []string{}
	}
	return mustOK(RestartData{JobIDs: ids})
}
