package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a dotted YAML path (for example
// "restart.terminate_wait" or "rules.helper_patterns") and where it came
// from. Values are reported in their YAML form.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	if isExtendable(path) {
		if src, ok := res.Sources[extendPath(path)]; ok {
			return value, src, nil
		}
		return value, Source{Kind: SourceBuiltin, Name: "builtin"}, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	node := &doc
	for _, key := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		node = next
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return value, nil
}

// isExtendable reports whether path names a list seeded from builtin.go.
func isExtendable(path string) bool {
	switch path {
	case "priority", "rules.system_prefixes", "rules.hard_exclusions",
		"rules.helper_patterns", "rules.important_overrides":
		return true
	}
	return false
}

func extendPath(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i+1] + "extend_" + path[i+1:]
	}
	return "extend_" + path
}
