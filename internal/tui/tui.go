package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run shows the menu until the user quits. The daemon is told the menu is
// open for the whole session so refreshes do not reshuffle rows under the
// cursor.
func Run(client Daemon) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	m := newModel(client)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		m.close()
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
