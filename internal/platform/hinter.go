package platform

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// hintTimeout bounds the external hint command.
const hintTimeout = 5 * time.Second

// CommandHinter runs a user-configured shell command to make the tray host
// re-lay out its icons. An empty command does nothing.
type CommandHinter struct {
	Command string
	Logger  *slog.Logger
}

// AttemptHostRefreshHint implements HostHinter. Failures are logged and
// otherwise ignored.
func (h CommandHinter) AttemptHostRefreshHint() {
	if h.Command == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), hintTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "sh", "-c", h.Command).CombinedOutput()
	if err != nil && h.Logger != nil {
		h.Logger.Warn("host refresh hint failed", "command", h.Command, "error", err, "output", string(out))
	}
}
