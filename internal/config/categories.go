package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// CategoryDef declares one category: the metadata key scanned (Group) and its
// display name.
type CategoryDef struct {
	Group string
	Name  string
}

// Categories is the ordered list of declared categories. Order follows the
// configuration file.
type Categories []CategoryDef

// UnmarshalYAML decodes a `group: name` mapping while keeping key order.
func (c *Categories) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*c = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("categories: expected mapping, got %s", kindName(node.Kind))
	}
	out := make(Categories, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("categories.%s: expected a display name, got %s", key.Value, kindName(val.Kind))
		}
		out = append(out, CategoryDef{Group: key.Value, Name: val.Value})
	}
	*c = out
	return nil
}

// MarshalYAML encodes the categories back into an ordered mapping.
func (c Categories) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, def := range c {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: def.Group},
			&yaml.Node{Kind: yaml.ScalarNode, Value: def.Name})
	}
	return node, nil
}

// Groups returns the metadata keys in declaration order.
func (c Categories) Groups() []string {
	groups := make([]string, len(c))
	for i, def := range c {
		groups[i] = def.Group
	}
	return groups
}

// Lookup returns the declaration for a group.
func (c Categories) Lookup(group string) (CategoryDef, bool) {
	for _, def := range c {
		if def.Group == group {
			return def, true
		}
	}
	return CategoryDef{}, false
}

func (c Categories) validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, def := range c {
		if def.Group == "" {
			return serrors.ConfigInvalid("categories", "empty category group")
		}
		if _, dup := seen[def.Group]; dup {
			return serrors.ConfigInvalid("categories."+def.Group, "category declared twice")
		}
		seen[def.Group] = struct{}{}
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
