// Package reader turns raw content files into rendered bodies and front matter.
package reader

import (
	"bytes"
	"strings"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// Content is the result of reading one content file.
type Content struct {
	// Body is the rendered HTML body.
	Body string
	// Metadata is the decoded front matter, not yet normalized.
	Metadata map[string]any
	// Fingerprint identifies the file's front matter and body.
	Fingerprint string
}

// ContentReader converts a file's raw bytes into Content. path is used for
// error context only.
type ContentReader interface {
	Read(path string, src []byte) (*Content, error)
}

// MarkdownReader reads Markdown files with YAML or TOML front matter.
type MarkdownReader struct {
	md goldmark.Markdown
}

// NewMarkdownReader returns a reader configured with GitHub-flavoured Markdown,
// footnotes, definition lists, smart punctuation and heading IDs.
func NewMarkdownReader() *MarkdownReader {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
	return &MarkdownReader{md: md}
}

// Read implements ContentReader.
func (r *MarkdownReader) Read(path string, src []byte) (*Content, error) {
	fmRaw, body, format, err := frontmatter.Split(src)
	if err != nil {
		return nil, serrors.FrontMatterInvalid(path, err)
	}

	fields, err := frontmatter.Parse(format, fmRaw)
	if err != nil {
		return nil, serrors.FrontMatterInvalid(path, err)
	}

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, serrors.ContentReadFailed(path, err)
	}

	fingerprint, err := Fingerprint(fields, body)
	if err != nil {
		return nil, serrors.FrontMatterInvalid(path, err)
	}

	return &Content{
		Body:        buf.String(),
		Metadata:    fields,
		Fingerprint: fingerprint,
	}, nil
}

// Fingerprint computes the canonical content fingerprint of a document from its
// decoded front matter and its raw body.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	fmForHash := ""
	if len(fields) > 0 {
		serialized, err := frontmatter.Canonical(fields)
		if err != nil {
			return "", err
		}
		fmForHash = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fmForHash, string(body)), nil
}
