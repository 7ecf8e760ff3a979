package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/ipc"
)

const (
	ServerName    = "barkeep"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools call. *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListApps() ([]apps.Application, error)
	Suggest() ([]apps.Application, error)
	Refresh(force bool) (*ipc.RefreshData, error)
	Activate(identity string) (*ipc.ActivateData, error)
	Restart(identities ...string) ([]string, error)
	RestartAll() ([]string, error)
	Move(source, target string) (*ipc.MoveData, error)
	History(identity string, limit int) (*ipc.HistoryData, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server exposes the barkeep daemon to MCP clients.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to the daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{daemon: daemon, logger: logger}

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
		Name:        "list_status_apps",
		Description: "List the status-area (system tray) utilities currently published by the barkeep daemon, in presentation order. Optionally mark the ones that look safe to hide.",
	}, s.handleListApps)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the daemon state: published count, whether the menu is open or a drag is in progress, pending restarts and last refresh time.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_app",
		Description: "Bring a status-area application forward. Tries direct activation, then the application launcher, then opening it from its install location.",
	}, s.handleActivateApp)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restart_apps",
		Description: "Queue restarts for the given applications (or all of them). Restarts run one at a time; the returned job ids appear in get_history once finished.",
	}, s.handleRestartApps)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_app",
		Description: "Move an application to another application's position in the published order. The manual order lasts until the daemon restarts.",
	}, s.handleMoveApp)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh_apps",
		Description: "Rescan running processes now. Without force, a new sequence is only published when the application count changed.",
	}, s.handleRefreshApps)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_history",
		Description: "Read recent activations, restarts and reorders from the daemon's journal, newest first.",
	}, s.handleGetHistory)
}
