package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.RefreshInterval = 10 * time.Second
	cfg.Palette.Backend = "rofi"
	cfg.Hotkeys.Refresh = "Mod4-b"
	cfg.Priority = []string{"Slack", "Zoom"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "refresh_interval: 10s") {
		t.Errorf("expected duration string, got:\n%s", text)
	}
	if strings.Contains(text, "helper_patterns") || strings.Contains(text, "low_priority_keywords") {
		t.Errorf("builtin tables should be omitted, got:\n%s", text)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if !reflect.DeepEqual(res.Config, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", res.Config, cfg)
	}
}

func TestSaveTo_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.DragThreshold = -1
	if err := cfg.SaveTo(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("invalid config should not be written (stat err %v)", err)
	}
}
