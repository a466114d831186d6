package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mailforward/internal/domain/routing"
)

// ParseLabelThreadMap decodes a JSON object of label name to thread id,
// keeping the declared key order. JSON is valid YAML, and the YAML node
// tree preserves mapping order where a Go map would not.
func ParseLabelThreadMap(raw string) ([]routing.Route, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("mapping must be an object of label to thread id")
	}

	node := doc.Content[0]
	routes := make([]routing.Route, 0, len(node.Content)/2)
	seen := make(map[string]bool)

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || strings.TrimSpace(key.Value) == "" {
			return nil, fmt.Errorf("line %d: label name must be a non-empty string", key.Line)
		}

		label := key.Value
		if seen[strings.ToLower(label)] {
			return nil, fmt.Errorf("label %q is mapped more than once", label)
		}
		seen[strings.ToLower(label)] = true

		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("label %q: thread id must be an integer", label)
		}
		threadID, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("label %q: thread id must be an integer: %w", label, err)
		}

		routes = append(routes, routing.Route{Label: label, ThreadID: threadID})
	}

	if len(routes) == 0 {
		return nil, fmt.Errorf("mapping is empty")
	}
	return routes, nil
}
