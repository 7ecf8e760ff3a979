package palette

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestRofiFormatRow_SingleNullSeparator(t *testing.T) {
	p := newProgram("rofi")

	out := p.formatRow(Item{Label: "Apps", Header: true, Icon: "folder", Meta: "meta"})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.HasPrefix(out, "<b>Apps</b>\x00nonselectable\x1ftrue") {
		t.Fatalf("expected bold non-selectable header, got %q", out)
	}
	if !strings.Contains(out, "icon\x1ffolder") || !strings.Contains(out, "meta\x1fmeta") {
		t.Fatalf("expected icon/meta attributes, got %q", out)
	}
}

func TestFormatRow_EscapesMarkup(t *testing.T) {
	p := newProgram("wofi")
	if got := p.formatRow(Item{Label: "Tom & <Jerry>"}); got != "Tom &amp; &lt;Jerry&gt;" {
		t.Fatalf("formatRow = %q", got)
	}
	if got := newProgram("dmenu").formatRow(Item{Label: "a\nb", Icon: "x"}); got != "a b" {
		t.Fatalf("dmenu formatRow = %q", got)
	}
}

func TestFormatInput_DisambiguatesLabelsForTextBackends(t *testing.T) {
	rows := []Item{{Label: "Slack"}, {Label: "Slack"}, {Label: "Zoom"}}
	input, _, _ := newProgram("dmenu").formatInput(rows)
	if input != "Slack\nSlack (2)\nZoom" {
		t.Fatalf("input = %q", input)
	}

	rows = []Item{{Label: "Slack"}, {Label: "Slack"}}
	input, _, _ = newProgram("fuzzel").formatInput(rows)
	if input != "Slack\nSlack" {
		t.Fatalf("index backends should keep labels, got %q", input)
	}
}

func TestRofiBuildArgs(t *testing.T) {
	p := newProgram("rofi")
	_, active, urgent := p.formatInput([]Item{
		{Label: "h", Header: true, Active: true},
		{Label: "a", Active: true},
		{Label: "b", Urgent: true},
	})
	args := p.buildArgs("barkeep", "3 apps", active, urgent)

	for _, pair := range [][2]string{
		{"-format", "i"},
		{"-a", "1"},
		{"-selected-row", "1"},
		{"-u", "2"},
		{"-p", "barkeep"},
		{"-mesg", "3 apps"},
		{"-kb-custom-1", "Alt+Return"},
	} {
		if !containsArgs(args, pair[0], pair[1]) {
			t.Errorf("expected %s %s in %v", pair[0], pair[1], args)
		}
	}
}

func TestShow(t *testing.T) {
	rows := []Item{{Label: "a", Action: "activate:a"}, {Label: "b", Action: "activate:b"}}

	tests := []struct {
		name    string
		backend string
		out     string
		code    int
		want    string
		alt     bool
		err     error
	}{
		{"rofi index", "rofi", "1\n", 0, "activate:b", false, nil},
		{"rofi alt", "rofi", "0", exitAlt, "activate:a", true, nil},
		{"dmenu text", "dmenu", "b\n", 0, "activate:b", false, nil},
		{"escape", "rofi", "", 1, "", false, ErrCancelled},
		{"ctrl-c", "dmenu", "", 130, "", false, ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProgram(tt.backend)
			var gotName, gotInput string
			p.run = func(name string, args []string, stdin string) (string, int, error) {
				gotName, gotInput = name, stdin
				return tt.out, tt.code, nil
			}

			sel, err := p.Show("barkeep", rows, "")
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotName != tt.backend || gotInput == "" {
				t.Errorf("ran %q with input %q", gotName, gotInput)
			}
			if sel.Item.Action != tt.want || sel.Alt != tt.alt {
				t.Errorf("selection = %+v, want action %q alt %v", sel, tt.want, tt.alt)
			}
		})
	}
}

func TestShow_Failures(t *testing.T) {
	p := newProgram("rofi")
	p.run = func(string, []string, string) (string, int, error) { return "", 2, nil }
	if _, err := p.Show("x", []Item{{Label: "a"}}, ""); err == nil {
		t.Error("expected error for unexpected exit status")
	}

	p.run = func(string, []string, string) (string, int, error) { return "7", 0, nil }
	if _, err := p.Show("x", []Item{{Label: "a"}}, ""); err == nil {
		t.Error("expected error for out-of-range index")
	}

	if _, err := p.Show("x", nil, ""); err == nil {
		t.Error("expected error for empty item list")
	}
}

func TestNew(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(file string) (string, error) {
		if file == "wofi" || file == "dmenu" {
			return "/usr/bin/" + file, nil
		}
		return "", exec.ErrNotFound
	}

	l, err := New("auto")
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if p := l.(*program); p.name != "wofi" {
		t.Errorf("auto picked %q, want wofi", p.name)
	}
	if l.SupportsAlt() {
		t.Error("wofi should not support the alternate key")
	}

	if _, err := New("rofi"); err == nil {
		t.Error("expected error for missing rofi")
	}
	if _, err := New("zenity"); err == nil {
		t.Error("expected error for unknown backend")
	}

	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	if _, err := New(""); err == nil {
		t.Error("expected error when nothing is installed")
	}
}

func containsArgs(args []string, key, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == key && args[i+1] == value {
			return true
		}
	}
	return false
}
