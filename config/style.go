package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

//go:embed default_style.yaml
var defaultStyle []byte

// StyleRule is a single CSS declaration. Values are untrusted and must be
// validated before use.
type StyleRule struct {
	Property string
	Value    string
}

// StyleRules keeps declarations in the order they were written.
type StyleRules []StyleRule

// UnmarshalYAML decodes mapping preserving key order.
func (r *StyleRules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: style rules must be a mapping", node.Line)
	}
	rules := make(StyleRules, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: style rule must be a scalar property/value pair", k.Line)
		}
		rules = append(rules, StyleRule{Property: k.Value, Value: v.Value})
	}
	*r = rules
	return nil
}

// MarshalYAML encodes rules back as ordered mapping.
func (r StyleRules) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, rule := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rule.Property},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rule.Value},
		)
	}
	return node, nil
}

type StyleClass struct {
	Class string     `yaml:"class"`
	Rules StyleRules `yaml:"rules"`
}

// Style is a named set of CSS classes used for styled HTML and reader output.
type Style struct {
	Name    string       `yaml:"name"`
	Classes []StyleClass `yaml:"classes"`
}

// ParseStyle decodes style definition.
func ParseStyle(data []byte) (*Style, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Style
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode style definition: %w", err)
	}
	return &s, nil
}

// LoadStyle reads style definition from path, built-in style is returned when
// path is empty.
func LoadStyle(path string) (*Style, error) {
	if len(path) == 0 {
		return ParseStyle(defaultStyle)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style definition: %w", err)
	}
	return ParseStyle(data)
}
