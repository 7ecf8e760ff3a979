package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/barkeep/internal/apps"
)

func (s *Server) handleListApps(_ context.Context, _ *mcpsdk.CallToolRequest, args ListAppsInput) (*mcpsdk.CallToolResult, ListAppsOutput, error) {
	list, err := s.daemon.ListApps()
	if err != nil {
		return nil, ListAppsOutput{}, err
	}

	suggested := map[string]bool{}
	if args.WithSuggestions {
		found, err := s.daemon.Suggest()
		if err != nil {
			return nil, ListAppsOutput{}, fmt.Errorf("suggest: %w", err)
		}
		for _, a := range found {
			suggested[a.Identity] = true
		}
	}

	out := ListAppsOutput{Apps: make([]AppInfo, 0, len(list)), Count: len(list)}
	for i, a := range list {
		out.Apps = append(out.Apps, appInfo(i, a, suggested[a.Identity]))
	}
	s.logger.Debug("list_status_apps", "count", out.Count, "suggested", len(suggested))
	return nil, out, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{
		Count:           st.Count,
		MenuOpen:        st.MenuOpen,
		Dragging:        st.Dragging,
		Suppressed:      st.Suppressed,
		ManualOrder:     st.ManualOrder,
		PendingRestarts: st.PendingRestarts,
		LastRefresh:     st.LastRefresh,
		UptimeSeconds:   st.UptimeSeconds,
	}, nil
}

func (s *Server) handleActivateApp(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateAppInput) (*mcpsdk.CallToolResult, ActivateAppOutput, error) {
	if args.Identity == "" {
		return nil, ActivateAppOutput{}, fmt.Errorf("identity is required")
	}
	data, err := s.daemon.Activate(args.Identity)
	if err != nil {
		return nil, ActivateAppOutput{}, err
	}
	s.logger.Info("activate_app", "identity", args.Identity, "succeeded", data.Outcome.Succeeded)
	return nil, ActivateAppOutput{
		Identity:  data.Identity,
		Succeeded: data.Outcome.Succeeded,
		Via:       data.Outcome.Via.String(),
	}, nil
}

func (s *Server) handleRestartApps(_ context.Context, _ *mcpsdk.CallToolRequest, args RestartAppsInput) (*mcpsdk.CallToolResult, RestartAppsOutput, error) {
	var (
		jobs []string
		err  error
	)
	switch {
	case args.All:
		jobs, err = s.daemon.RestartAll()
	case len(args.Identities) > 0:
		jobs, err = s.daemon.Restart(args.Identities...)
	default:
		return nil, RestartAppsOutput{}, fmt.Errorf("pass identities or set all")
	}
	if err != nil {
		return nil, RestartAppsOutput{}, err
	}
	s.logger.Info("restart_apps", "jobs", len(jobs), "all", args.All)
	return nil, RestartAppsOutput{JobIDs: jobs}, nil
}

func (s *Server) handleMoveApp(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveAppInput) (*mcpsdk.CallToolResult, MoveAppOutput, error) {
	if args.Source == "" || args.Target == "" {
		return nil, MoveAppOutput{}, fmt.Errorf("source and target are required")
	}
	data, err := s.daemon.Move(args.Source, args.Target)
	if err != nil {
		return nil, MoveAppOutput{}, err
	}
	return nil, MoveAppOutput{Moved: data.Moved, Order: data.Order}, nil
}

func (s *Server) handleRefreshApps(_ context.Context, _ *mcpsdk.CallToolRequest, args RefreshAppsInput) (*mcpsdk.CallToolResult, RefreshAppsOutput, error) {
	data, err := s.daemon.Refresh(args.Force)
	if err != nil {
		return nil, RefreshAppsOutput{}, err
	}
	return nil, RefreshAppsOutput{Published: data.Published, Count: data.Count}, nil
}

func (s *Server) handleGetHistory(_ context.Context, _ *mcpsdk.CallToolRequest, args GetHistoryInput) (*mcpsdk.CallToolResult, GetHistoryOutput, error) {
	data, err := s.daemon.History(args.Identity, args.Limit)
	if err != nil {
		return nil, GetHistoryOutput{}, err
	}
	out := GetHistoryOutput{Entries: make([]HistoryEntry, 0, len(data.Entries))}
	for _, e := range data.Entries {
		out.Entries = append(out.Entries, HistoryEntry{
			Timestamp: e.Timestamp,
			Kind:      string(e.Kind),
			Identity:  e.Identity,
			Name:      e.Name,
			Succeeded: e.Succeeded,
			Strategy:  e.Strategy,
			Detail:    e.Detail,
		})
	}
	return nil, out, nil
}

func appInfo(position int, a apps.Application, suggested bool) AppInfo {
	return AppInfo{
		Position:   position,
		Identity:   a.Identity,
		Name:       a.Name(),
		Status:     a.Status(),
		PID:        a.PID,
		LaunchTime: a.LaunchTime,
		Suggested:  suggested,
	}
}
