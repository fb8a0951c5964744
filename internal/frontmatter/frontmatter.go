// Package frontmatter separates structured metadata blocks from the head of a
// content file and decodes them.
//
// Two block styles are recognized:
//
//	---        YAML, closed by a line holding only ---
//	+++        TOML, closed by a line holding only +++
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the front matter syntax found in a document.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var delimiters = []struct {
	fence  string
	format Format
}{
	{"---", FormatYAML},
	{"+++", FormatTOML},
}

// ErrMissingClosingDelimiter indicates the document started with a front matter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates front matter from the document body.
//
// If the document does not start with a known delimiter, format is FormatNone
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, format Format, err error) {
	nl := detectNewline(content)

	for _, d := range delimiters {
		open := []byte(d.fence + nl)
		if !bytes.HasPrefix(content, open) {
			continue
		}

		start := len(open)
		closeLine := []byte(d.fence + nl)
		if bytes.HasPrefix(content[start:], closeLine) {
			return []byte{}, content[start+len(closeLine):], d.format, nil
		}

		rest := content[start:]
		closeSeq := []byte(nl + d.fence + nl)
		idx := bytes.Index(rest, closeSeq)
		if idx < 0 {
			// Closing fence may be the last line without a trailing newline.
			if bytes.HasSuffix(rest, []byte(nl+d.fence)) {
				end := len(rest) - len(d.fence)
				return rest[:end], []byte{}, d.format, nil
			}
			return nil, nil, FormatNone, ErrMissingClosingDelimiter
		}
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], d.format, nil
	}

	return nil, content, FormatNone, nil
}

// Parse decodes a raw front matter block (without delimiters) into a map.
func Parse(format Format, frontmatter []byte) (map[string]any, error) {
	switch format {
	case FormatNone:
		return map[string]any{}, nil
	case FormatYAML:
		return ParseYAML(frontmatter)
	case FormatTOML:
		return ParseTOML(frontmatter)
	default:
		return nil, fmt.Errorf("unsupported front matter format %q", format)
	}
}

// ParseYAML parses raw YAML front matter into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseTOML parses raw TOML front matter into a map.
func ParseTOML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}
	if _, err := toml.Decode(string(frontmatter), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			if i > 0 && content[i-1] == '\r' {
				return "\r\n"
			}
			return "\n"
		}
	}
	return "\n"
}
