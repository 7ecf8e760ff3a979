package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommandHinter(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "hinted")
	CommandHinter{Command: "touch " + marker}.AttemptHostRefreshHint()
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("hint command did not run: %v", err)
	}
}

func TestCommandHinter_EmptyAndFailing(t *testing.T) {
	// Neither may panic or block.
	CommandHinter{}.AttemptHostRefreshHint()
	CommandHinter{Command: "exit 3"}.AttemptHostRefreshHint()
	NopHinter{}.AttemptHostRefreshHint()
}
