package mcp

import "time"

// AppInfo describes one published status-area application.
type AppInfo struct {
	Position   int       `json:"position"`
	Identity   string    `json:"identity"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	PID        int       `json:"pid,omitempty"`
	LaunchTime time.Time `json:"launch_time,omitempty"`
	Suggested  bool      `json:"suggested_hide,omitempty"`
}

// ListAppsInput is the input for the list_status_apps tool.
type ListAppsInput struct {
	WithSuggestions bool `json:"with_suggestions,omitempty" jsonschema:"When true, mark applications that match a low-priority keyword and look safe to hide"`
}

// ListAppsOutput is the output for the list_status_apps tool.
type ListAppsOutput struct {
	Apps  []AppInfo `json:"apps"`
	Count int       `json:"count"`
}

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Count           int       `json:"count"`
	MenuOpen        bool      `json:"menu_open"`
	Dragging        bool      `json:"dragging"`
	Suppressed      bool      `json:"suppressed"`
	ManualOrder     bool      `json:"manual_order"`
	PendingRestarts int       `json:"pending_restarts"`
	LastRefresh     time.Time `json:"last_refresh"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
}

// ActivateAppInput is the input for the activate_app tool.
type ActivateAppInput struct {
	Identity string `json:"identity" jsonschema:"required,Identity of the application (bundle id or name) as reported by list_status_apps"`
}

// ActivateAppOutput is the output for the activate_app tool.
type ActivateAppOutput struct {
	Identity  string `json:"identity"`
	Succeeded bool   `json:"succeeded"`
	Via       string `json:"via"`
}

// RestartAppsInput is the input for the restart_apps tool.
type RestartAppsInput struct {
	Identities []string `json:"identities,omitempty" jsonschema:"Identities to restart, in order"`
	All        bool     `json:"all,omitempty" jsonschema:"When true, restart every published application and ignore identities"`
}

// RestartAppsOutput is the output for the restart_apps tool.
type RestartAppsOutput struct {
	JobIDs []string `json:"job_ids"`
}

// MoveAppInput is the input for the move_app tool.
type MoveAppInput struct {
	Source string `json:"source" jsonschema:"required,Identity of the application to move"`
	Target string `json:"target" jsonschema:"required,Identity whose position the source takes"`
}

// MoveAppOutput is the output for the move_app tool.
type MoveAppOutput struct {
	Moved bool     `json:"moved"`
	Order []string `json:"order,omitempty"`
}

// RefreshAppsInput is the input for the refresh_apps tool.
type RefreshAppsInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Publish even when the application count did not change"`
}

// RefreshAppsOutput is the output for the refresh_apps tool.
type RefreshAppsOutput struct {
	Published bool `json:"published"`
	Count     int  `json:"count"`
}

// GetHistoryInput is the input for the get_history tool.
type GetHistoryInput struct {
	Identity string `json:"identity,omitempty" jsonschema:"Only return entries about this application"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default: 20)"`
}

// HistoryEntry is one journaled event.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Identity  string    `json:"identity"`
	Name      string    `json:"name,omitempty"`
	Succeeded bool      `json:"succeeded"`
	Strategy  string    `json:"strategy,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// GetHistoryOutput is the output for the get_history tool.
type GetHistoryOutput struct {
	Entries []HistoryEntry `json:"entries"`
}
