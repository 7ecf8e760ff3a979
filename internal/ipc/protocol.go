package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/barkeep/internal/activation"
	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/daemon"
	"github.com/1broseidon/barkeep/internal/history"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload     CommandType = "RELOAD"
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandListApps   CommandType = "LIST_APPS"
	CommandRefresh    CommandType = "REFRESH"
	CommandActivate   CommandType = "ACTIVATE"
	CommandRestart    CommandType = "RESTART"
	CommandRestartAll CommandType = "RESTART_ALL"
	CommandMove       CommandType = "MOVE"
	CommandSuggest    CommandType = "SUGGEST"
	CommandMenuOpen   CommandType = "MENU_OPEN"
	CommandMenuClose  CommandType = "MENU_CLOSE"
	CommandDragBegin  CommandType = "DRAG_BEGIN"
	CommandDragMotion CommandType = "DRAG_MOTION"
	CommandDragDrop   CommandType = "DRAG_DROP"
	CommandDragCancel CommandType = "DRAG_CANCEL"
	CommandHistory    CommandType = "HISTORY"
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
	daemon.Status
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	ConfigPath    string `json:"config_path,omitempty"`
	History       bool   `json:"history"`
}

// AppsData is returned by LIST_APPS and SUGGEST.
type AppsData struct {
	Apps []apps.Application `json:"apps"`
}

// RefreshPayload is the payload for REFRESH.
type RefreshPayload struct {
	Force bool `json:"force,omitempty"`
}

// RefreshData reports whether a refresh published a new sequence.
type RefreshData struct {
	Published bool `json:"published"`
	Count     int  `json:"count"`
}

// IdentityPayload names one application.
type IdentityPayload struct {
	Identity string `json:"identity"`
}

// ActivateData is returned by ACTIVATE.
type ActivateData struct {
	Identity string             `json:"identity"`
	Outcome  activation.Outcome `json:"outcome"`
}

// RestartPayload is the payload for RESTART.
type RestartPayload struct {
	Identities []string `json:"identities"`
}

// RestartData lists the queued restart jobs.
type RestartData struct {
	JobIDs []string `json:"job_ids"`
}

// MovePayload is the payload for MOVE and DRAG_DROP (target only).
type MovePayload struct {
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
}

// MoveData reports whether the ordering changed.
type MoveData struct {
	Moved bool     `json:"moved"`
	Order []string `json:"order,omitempty"`
}

// DragPayload is the payload for DRAG_BEGIN and DRAG_MOTION.
type DragPayload struct {
	Source string  `json:"source,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// DragData reports whether a drag step was accepted.
type DragData struct {
	Accepted bool `json:"accepted"`
	Dragging bool `json:"dragging"`
}

// HistoryPayload is the payload for HISTORY.
type HistoryPayload struct {
	Identity string `json:"identity,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// HistoryData is returned by HISTORY.
type HistoryData struct {
	Entries []history.Entry `json:"entries"`
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
