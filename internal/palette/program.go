package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

const exitAlt = 10 // rofi kb-custom-1

// runFunc executes a launcher and returns its stdout and exit code.
type runFunc func(name string, args []string, stdin string) (string, int, error)

// program drives a dmenu-compatible launcher over stdin/stdout.
type program struct {
	name string

	indexOutput   bool // prints the row index instead of its text
	markup        bool
	icons         bool
	nonSelectable bool
	rowStates     bool
	altKey        bool

	run runFunc
}

func newProgram(name string) *program {
	p := &program{name: name, run: execRun}
	switch name {
	case "rofi":
		p.indexOutput = true
		p.markup = true
		p.icons = true
		p.nonSelectable = true
		p.rowStates = true
		p.altKey = true
	case "fuzzel":
		p.indexOutput = true
		p.icons = true
	case "wofi":
		p.markup = true
		p.icons = true
	}
	return p
}

func execRun(name string, args []string, stdin string) (string, int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return string(out), 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode(), nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", -1, fmt.Errorf("%s failed: %s", name, msg)
	}
	return "", -1, fmt.Errorf("%s failed: %w", name, err)
}

func (p *program) SupportsAlt() bool { return p.altKey }

func (p *program) Show(prompt string, items []Item, message string) (Selection, error) {
	if len(items) == 0 {
		return Selection{}, fmt.Errorf("palette: no items to show")
	}

	rows := make([]Item, len(items))
	copy(rows, items)

	input, active, urgent := p.formatInput(rows)
	out, code, err := p.run(p.name, p.buildArgs(prompt, message, active, urgent), input)
	if err != nil {
		return Selection{}, err
	}

	choice := strings.TrimSpace(out)
	switch {
	case choice == "" && (code == 0 || code == 1 || code == 130):
		return Selection{}, ErrCancelled
	case code != 0 && code != exitAlt:
		return Selection{}, fmt.Errorf("%s exited with status %d", p.name, code)
	}

	item, err := p.parseSelection(choice, rows)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Item: item, Alt: code == exitAlt}, nil
}

func (p *program) buildArgs(prompt, message string, active, urgent []int) []string {
	var args []string
	switch p.name {
	case "rofi":
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		if len(active) > 0 {
			args = append(args, "-a", joinInts(active), "-selected-row", strconv.Itoa(active[0]))
		}
		if len(urgent) > 0 {
			args = append(args, "-u", joinInts(urgent))
		}
		args = append(args, "-kb-custom-1", "Alt+Return")
		if message != "" {
			args = append(args, "-mesg", message)
		}
	case "fuzzel":
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case "wofi":
		args = []string{"--dmenu", "--allow-markup", "--allow-images"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	default:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// formatInput renders rows as launcher input. Programs that echo the row
// text get duplicate labels suffixed so every row stays addressable.
func (p *program) formatInput(rows []Item) (string, []int, []int) {
	if !p.indexOutput {
		seen := make(map[string]int)
		for i := range rows {
			key := cleanLabel(rows[i].Label)
			if rows[i].Header || key == "" {
				continue
			}
			if n := seen[key]; n > 0 {
				rows[i].Label = fmt.Sprintf("%s (%d)", key, n+1)
			}
			seen[key]++
		}
	}

	var active, urgent []int
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = p.formatRow(row)
		if row.Header || !p.rowStates {
			continue
		}
		if row.Active {
			active = append(active, i)
		}
		if row.Urgent {
			urgent = append(urgent, i)
		}
	}
	return strings.Join(lines, "\n"), active, urgent
}

func (p *program) formatRow(row Item) string {
	text := cleanLabel(row.Label)
	if p.markup {
		text = html.EscapeString(text)
		if row.Header {
			text = "<b>" + text + "</b>"
		}
	}
	if p.name != "rofi" {
		return text
	}

	// rofi row options: one NUL, then key\x1fvalue pairs.
	var attrs []string
	if row.Header && p.nonSelectable {
		attrs = append(attrs, "nonselectable", "true")
	}
	if row.Icon != "" {
		attrs = append(attrs, "icon", cleanField(row.Icon))
	}
	if row.Meta != "" {
		attrs = append(attrs, "meta", cleanField(row.Meta))
	}
	if len(attrs) == 0 {
		return text
	}
	return text + "\x00" + strings.Join(attrs, "\x1f")
}

func (p *program) parseSelection(choice string, rows []Item) (Item, error) {
	if p.indexOutput {
		if idx, err := strconv.Atoi(choice); err == nil {
			if idx < 0 || idx >= len(rows) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return rows[idx], nil
		}
	}
	for _, row := range rows {
		if cleanLabel(row.Label) == choice {
			return row, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", choice)
}

func cleanLabel(label string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(label))
}

func cleanField(value string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(value))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
