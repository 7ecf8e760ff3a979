package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/runtimepath"
)

// DefaultClientTimeout covers a forced refresh plus a bounded activation.
const DefaultClientTimeout = 15 * time.Second

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultClientTimeout,
	}
}

// SetTimeout overrides the per-request deadline.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends command with an optional payload and decodes the response
// data into out when out is non-nil.
func (c *Client) call(command CommandType, payload any, out any) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListApps retrieves the published sequence.
func (c *Client) ListApps() ([]apps.Application, error) {
	var data AppsData
	if err := c.call(CommandListApps, nil, &data); err != nil {
		return nil, err
	}
	return data.Apps, nil
}

// Suggest retrieves applications that look safe to hide.
func (c *Client) Suggest() ([]apps.Application, error) {
	var data AppsData
	if err := c.call(CommandSuggest, nil, &data); err != nil {
		return nil, err
	}
	return data.Apps, nil
}

// Refresh runs a pipeline pass in the daemon.
func (c *Client) Refresh(force bool) (*RefreshData, error) {
	var data RefreshData
	if err := c.call(CommandRefresh, RefreshPayload{Force: force}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Activate brings identity to the foreground.
func (c *Client) Activate(identity string) (*ActivateData, error) {
	var data ActivateData
	if err := c.call(CommandActivate, IdentityPayload{Identity: identity}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Restart queues restart jobs and returns their ids.
func (c *Client) Restart(identities ...string) ([]string, error) {
	var data RestartData
	if err := c.call(CommandRestart, RestartPayload{Identities: identities}, &data); err != nil {
		return nil, err
	}
	return data.JobIDs, nil
}

// RestartAll queues a restart for every published application.
func (c *Client) RestartAll() ([]string, error) {
	var data RestartData
	if err := c.call(CommandRestartAll, nil, &data); err != nil {
		return nil, err
	}
	return data.JobIDs, nil
}

// Move places source at target's position.
func (c *Client) Move(source, target string) (*MoveData, error) {
	var data MoveData
	if err := c.call(CommandMove, MovePayload{Source: source, Target: target}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetMenuOpen reports whether the presentation menu is showing.
func (c *Client) SetMenuOpen(open bool) error {
	command := CommandMenuClose
	if open {
		command = CommandMenuOpen
	}
	return c.call(command, nil, nil)
}

// DragBegin arms a drag on source at the given pointer position.
func (c *Client) DragBegin(source string, x, y float64) (*DragData, error) {
	var data DragData
	if err := c.call(CommandDragBegin, DragPayload{Source: source, X: x, Y: y}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DragMotion reports pointer movement during a drag.
func (c *Client) DragMotion(x, y float64) (*DragData, error) {
	var data DragData
	if err := c.call(CommandDragMotion, DragPayload{X: x, Y: y}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DragDrop releases the dragged row over target.
func (c *Client) DragDrop(target string) (*MoveData, error) {
	var data MoveData
	if err := c.call(CommandDragDrop, MovePayload{Target: target}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DragCancel abandons the current drag.
func (c *Client) DragCancel() error {
	return c.call(CommandDragCancel, nil, nil)
}

// History returns journal entries, newest first. An empty identity lists
// all applications.
func (c *Client) History(identity string, limit int) (*HistoryData, error) {
	var data HistoryData
	if err := c.call(CommandHistory, HistoryPayload{Identity: identity, Limit: limit}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
