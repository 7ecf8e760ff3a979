package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/barkeep/internal/apps"
	"github.com/1broseidon/barkeep/internal/history"
	"github.com/1broseidon/barkeep/internal/ipc"
)

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "barkeep status [--json]", "Show daemon status via IPC.")
	asJSON := fs.Bool("json", false, "Print status as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("daemon_running:   %v\n", status.DaemonRunning)
	fmt.Printf("published_apps:   %d\n", status.Count)
	fmt.Printf("menu_open:        %v\n", status.MenuOpen)
	fmt.Printf("dragging:         %v\n", status.Dragging)
	if status.DragSource != "" {
		fmt.Printf("drag_source:      %s\n", status.DragSource)
	}
	fmt.Printf("suppressed:       %v\n", status.Suppressed)
	fmt.Printf("manual_order:     %v\n", status.ManualOrder)
	fmt.Printf("pending_restarts: %d\n", status.PendingRestarts)
	fmt.Printf("pipeline_runs:    %d\n", status.Runs)
	if !status.LastRefresh.IsZero() {
		fmt.Printf("last_refresh:     %s\n", status.LastRefresh.Format(time.RFC3339))
	}
	fmt.Printf("history:          %v\n", status.History)
	if status.ConfigPath != "" {
		fmt.Printf("config_path:      %s\n", status.ConfigPath)
	}
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	return 0
}

func runList(args []string) int {
	fs := newFlagSet("list", "barkeep list [--json]", "List the published status-area apps in display order.")
	asJSON := fs.Bool("json", false, "Print apps as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	published, err := ipc.NewClient().ListApps()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(published)
	}
	writeApps(os.Stdout, published, stdoutIsTerminal())
	return 0
}

func runSuggest(args []string) int {
	fs := newFlagSet("suggest", "barkeep suggest [--json]", "List published apps whose names suggest they are safe to hide.")
	asJSON := fs.Bool("json", false, "Print apps as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	suggested, err := ipc.NewClient().Suggest()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(suggested)
	}
	if len(suggested) == 0 && stdoutIsTerminal() {
		fmt.Println("nothing to suggest")
		return 0
	}
	writeApps(os.Stdout, suggested, stdoutIsTerminal())
	return 0
}

// writeApps prints an aligned table on a terminal and tab-separated
// identity/name pairs otherwise.
func writeApps(w io.Writer, list []apps.Application, table bool) {
	if !table {
		for _, a := range list {
			fmt.Fprintf(w, "%s\t%s\n", a.Identity, a.Name())
		}
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tIDENTITY\tPID\tSTATUS")
	for _, a := range list {
		pid := "-"
		if a.PID > 0 {
			pid = fmt.Sprint(a.PID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", a.OrderIndex+1, a.Name(), a.Identity, pid, a.Status())
	}
	tw.Flush()
}

func runRefresh(args []string) int {
	fs := newFlagSet("refresh", "barkeep refresh [--force]", "Rescan running apps and publish the result if it changed.")
	force := fs.Bool("force", false, "Publish even if the app count is unchanged")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := ipc.NewClient().Refresh(*force)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if res.Published {
		fmt.Printf("published %d apps\n", res.Count)
	} else {
		fmt.Printf("unchanged (%d apps)\n", res.Count)
	}
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "barkeep reload", "Ask the daemon to re-read its configuration.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runActivate(args []string) int {
	fs := newFlagSet("activate", "barkeep activate <identity>", "Bring an app forward, falling back to launching it.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	res, err := ipc.NewClient().Activate(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !res.Outcome.Succeeded {
		fmt.Fprintf(os.Stderr, "could not activate %s\n", res.Identity)
		return 1
	}
	fmt.Printf("activated %s via %s\n", res.Identity, res.Outcome.Via)
	return 0
}

func runRestart(args []string) int {
	fs := newFlagSet("restart", "barkeep restart <identity>...", "Queue restarts; apps are restarted one at a time.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	jobs, err := ipc.NewClient().Restart(fs.Args()...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printJobs(jobs)
	return 0
}

func runRestartAll(args []string) int {
	fs := newFlagSet("restart-all", "barkeep restart-all", "Queue a restart of every published app.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	jobs, err := ipc.NewClient().RestartAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printJobs(jobs)
	return 0
}

func printJobs(jobs []string) {
	if len(jobs) == 0 {
		fmt.Println("no restarts queued")
		return
	}
	for _, id := range jobs {
		fmt.Printf("queued %s\n", id)
	}
}

func runMove(args []string) int {
	fs := newFlagSet("move", "barkeep move <source> <target>", "Move source to target's position in the menu.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	res, err := ipc.NewClient().Move(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !res.Moved {
		fmt.Println("order unchanged")
		return 0
	}
	fmt.Println(strings.Join(res.Order, "\n"))
	return 0
}

func runHistory(args []string) int {
	fs := newFlagSet("history", "barkeep history [--identity ID] [--limit N] [--json]", "Show recent activations, restarts and reorders.")
	identity := fs.StringP("identity", "i", "", "Only show entries for this identity")
	limit := fs.IntP("limit", "n", history.DefaultLimit, "Maximum number of entries")
	asJSON := fs.Bool("json", false, "Print entries as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := ipc.NewClient().History(*identity, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(res.Entries)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tKIND\tIDENTITY\tRESULT\tDETAIL")
	for _, e := range res.Entries {
		result := "failed"
		if e.Succeeded {
			result = "ok"
			if e.Strategy != "" {
				result = e.Strategy
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Identity, result, e.Detail)
	}
	tw.Flush()
	return 0
}
