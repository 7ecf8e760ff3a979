package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveTo validates c and writes it to path. Tables still equal to the
// builtin defaults are left out so later builtin updates reach the user.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var doc yaml.Node
	if err := doc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	defaults := DefaultConfig()
	for _, table := range []struct {
		path      string
		got, want []string
	}{
		{"priority", c.Priority, defaults.Priority},
		{"low_priority_keywords", c.LowPriorityKeywords, defaults.LowPriorityKeywords},
		{"rules.system_prefixes", c.Rules.SystemPrefixes, defaults.Rules.SystemPrefixes},
		{"rules.hard_exclusions", c.Rules.HardExclusions, defaults.Rules.HardExclusions},
		{"rules.helper_patterns", c.Rules.HelperPatterns, defaults.Rules.HelperPatterns},
		{"rules.important_overrides", c.Rules.ImportantOverrides, defaults.Rules.ImportantOverrides},
	} {
		if slices.Equal(table.got, table.want) {
			deleteKey(&doc, table.path)
		}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// deleteKey removes the mapping entry at a dotted path, if present.
func deleteKey(node *yaml.Node, path string) {
	keys := strings.Split(path, ".")
	for i, key := range keys {
		if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
			node = node.Content[0]
		}
		if node.Kind != yaml.MappingNode {
			return
		}
		idx := -1
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value == key {
				idx = j
				break
			}
		}
		if idx < 0 {
			return
		}
		if i == len(keys)-1 {
			node.Content = append(node.Content[:idx], node.Content[idx+2:]...)
			return
		}
		node = node.Content[idx+1]
	}
}
