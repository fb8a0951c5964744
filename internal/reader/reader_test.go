package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func TestMarkdownReader_YAMLFrontMatter(t *testing.T) {
	src := []byte("---\ntitle: Top Level Page\nslug: top\ntags:\n  - a\n  - b\n---\nThis is a top level page.\n")

	c, err := NewMarkdownReader().Read("top_level_page.md", src)
	require.NoError(t, err)

	assert.Equal(t, "<p>This is a top level page.</p>\n", c.Body)
	assert.Equal(t, "Top Level Page", c.Metadata["title"])
	assert.Equal(t, "top", c.Metadata["slug"])
	assert.Equal(t, []any{"a", "b"}, c.Metadata["tags"])
	assert.NotEmpty(t, c.Fingerprint)
}

func TestMarkdownReader_TOMLFrontMatter(t *testing.T) {
	src := []byte("+++\nslug = \"t\"\n+++\n# Heading\n")

	c, err := NewMarkdownReader().Read("t.md", src)
	require.NoError(t, err)

	assert.Equal(t, "t", c.Metadata["slug"])
	assert.Contains(t, c.Body, `<h1 id="heading">Heading</h1>`)
}

func TestMarkdownReader_NoFrontMatter(t *testing.T) {
	c, err := NewMarkdownReader().Read("plain.md", []byte("Just text\n"))
	require.NoError(t, err)
	assert.Empty(t, c.Metadata)
	assert.Equal(t, "<p>Just text</p>\n", c.Body)
}

func TestMarkdownReader_GFMTable(t *testing.T) {
	src := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")
	c, err := NewMarkdownReader().Read("table.md", src)
	require.NoError(t, err)
	assert.Contains(t, c.Body, "<table>")
}

func TestMarkdownReader_MalformedFrontMatter(t *testing.T) {
	tests := map[string][]byte{
		"unclosed":     []byte("---\ntitle: x\nbody\n"),
		"invalid yaml": []byte("---\n: : :\n  - [\n---\nbody\n"),
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewMarkdownReader().Read("bad.md", src)
			require.Error(t, err)
			assert.True(t, serrors.IsCategory(err, serrors.CategoryContent))
			se, ok := serrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "bad.md", se.Context["path"])
		})
	}
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	fields := map[string]any{"slug": "a", "title": "A"}
	body := []byte("body\n")

	f1, err := Fingerprint(fields, body)
	require.NoError(t, err)
	f2, err := Fingerprint(map[string]any{"title": "A", "slug": "a"}, body)
	require.NoError(t, err)
	assert.Equal(t, f1, f2, "key order does not matter")

	f3, err := Fingerprint(fields, []byte("other\n"))
	require.NoError(t, err)
	assert.NotEqual(t, f1, f3)
}
