package palette

import (
	"errors"
	"testing"

	"github.com/1broseidon/barkeep/internal/apps"
)

// scriptedLauncher returns one queued response per Show call.
type scriptedLauncher struct {
	alt     bool
	picks   []func(items []Item) (Selection, error)
	prompts []string
}

func (s *scriptedLauncher) SupportsAlt() bool { return s.alt }

func (s *scriptedLauncher) Show(prompt string, items []Item, _ string) (Selection, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.picks) == 0 {
		return Selection{}, ErrCancelled
	}
	next := s.picks[0]
	s.picks = s.picks[1:]
	return next(items)
}

func pick(label string, alt bool) func([]Item) (Selection, error) {
	return func(items []Item) (Selection, error) {
		for _, it := range items {
			if it.Label == label {
				return Selection{Item: it, Alt: alt}, nil
			}
		}
		return Selection{}, errors.New("no row " + label)
	}
}

func cancel(items []Item) (Selection, error) { return Selection{}, ErrCancelled }

func menuApps() []apps.Application {
	return []apps.Application{
		{Identity: "com.tinyspeck.slackmacgap", BundleID: "com.tinyspeck.slackmacgap", DisplayName: "Slack"},
		{Identity: "Dropbox", DisplayName: "Dropbox", Hidden: true},
	}
}

func TestMenuChoose(t *testing.T) {
	tests := []struct {
		name  string
		alt   bool
		picks []func([]Item) (Selection, error)
		want  Action
		err   error
	}{
		{
			name:  "activate row",
			picks: []func([]Item) (Selection, error){pick("Slack", false)},
			want:  Action{Kind: ActionActivate, Identity: "com.tinyspeck.slackmacgap"},
		},
		{
			name:  "alt restarts",
			alt:   true,
			picks: []func([]Item) (Selection, error){pick("Dropbox (hidden)", true)},
			want:  Action{Kind: ActionRestart, Identity: "Dropbox"},
		},
		{
			name:  "header re-shows",
			picks: []func([]Item) (Selection, error){pick("Actions", false), pick("Refresh", false)},
			want:  Action{Kind: ActionRefresh},
		},
		{
			name:  "restart submenu",
			picks: []func([]Item) (Selection, error){pick("Restart…", false), pick("Restart Dropbox", false)},
			want:  Action{Kind: ActionRestart, Identity: "Dropbox"},
		},
		{
			name: "back from submenu",
			picks: []func([]Item) (Selection, error){
				pick("Restart…", false), pick("← Back", false), pick("Restart all", false),
			},
			want: Action{Kind: ActionRestartAll},
		},
		{
			name:  "escape in submenu returns to top",
			picks: []func([]Item) (Selection, error){pick("Restart…", false), cancel, cancel},
			err:   ErrCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &scriptedLauncher{alt: tt.alt, picks: tt.picks}
			got, err := NewMenu(l).Choose(menuApps(), nil)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("action = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMenuRootItems_MarksSuggested(t *testing.T) {
	m := NewMenu(&scriptedLauncher{})
	items := m.rootItems(menuApps(), map[string]bool{"Dropbox": true})

	var slack, dropbox Item
	for _, it := range items {
		switch it.Meta {
		case "com.tinyspeck.slackmacgap":
			slack = it
		case "Dropbox":
			dropbox = it
		}
	}
	if slack.Icon != "slackmacgap" || slack.Urgent {
		t.Errorf("slack row = %+v", slack)
	}
	if dropbox.Icon != "dropbox" || !dropbox.Urgent {
		t.Errorf("dropbox row = %+v", dropbox)
	}
}

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{
		"activate:a.b": {Kind: ActionActivate, Identity: "a.b"},
		"restart:x:y":  {Kind: ActionRestart, Identity: "x:y"},
		"restart-all":  {Kind: ActionRestartAll},
		"refresh":      {Kind: ActionRefresh},
	} {
		got, err := ParseAction(in)
		if err != nil || got != want {
			t.Errorf("ParseAction(%q) = %+v, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "activate:", "launch:x", "noop"} {
		if _, err := ParseAction(in); err == nil {
			t.Errorf("ParseAction(%q) should fail", in)
		}
	}
}
