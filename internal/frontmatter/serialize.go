package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Canonical renders decoded front matter as YAML that is stable across YAML
// and TOML sources: keys are sorted at every depth and times are written as
// UTC RFC 3339. Content fingerprints hash this form, so two files with the
// same metadata and body fingerprint identically whatever their front matter
// format. An empty map renders as no bytes.
func Canonical(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	doc, err := canonicalNode(fields)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	return buf.Bytes(), nil
}

func canonicalNode(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case time.Time:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: vv.UTC().Format(time.RFC3339)}, nil
	case map[string]any:
		return mappingNode(vv)
	case map[any]any:
		m := make(map[string]any, len(vv))
		for k, val := range vv {
			m[fmt.Sprint(k)] = val
		}
		return mappingNode(m)
	case []string:
		items := make([]any, len(vv))
		for i, s := range vv {
			items[i] = s
		}
		return sequenceNode(items)
	case []any:
		return sequenceNode(vv)
	}

	// Scalars use the encoder's own tagging.
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return n, nil
}

func mappingNode(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range keys {
		val, err := canonicalNode(m[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}
	return n, nil
}

func sequenceNode(items []any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		child, err := canonicalNode(item)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, child)
	}
	return n, nil
}
