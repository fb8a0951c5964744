package render

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/content"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/metadata"
)

func testPage(t *testing.T, raw map[string]any) *content.Page {
	t.Helper()
	m, err := metadata.New(raw)
	require.NoError(t, err)
	sec := content.NewSection("blog", "blog", nil)
	return content.NewPage("post", "blog/post.md", "<p>hi</p>", m, sec, false)
}

func templatesFS() fstest.MapFS {
	return fstest.MapFS{
		"page.html":          {Data: []byte(`{{ template "partials/head.html" . }}<main>{{ .page.Content }}</main>`)},
		"partials/head.html": {Data: []byte(`<title>{{ .page.Title }}</title>`)},
		"feed.xml":           {Data: []byte(`<title>{{ .page.Title }}</title>`)},
		"feed.html":          {Data: []byte(`html wins`)},
		"rss.xml":            {Data: []byte(`<link>{{ .page.URL | canonify "https://example.org/" }}</link>`)},
		".git/ignored.html":  {Data: []byte(`{{ broken`)},
		"notes.txt":          {Data: []byte(`{{ broken`)},
	}
}

func TestRenderString_OverrideWithSlug(t *testing.T) {
	r := NewStringRenderer()
	p := testPage(t, map[string]any{"slug": "foo", "date": "2020-03-04"})

	out, err := r.RenderString("overridden/{{ .page | slug }}", map[string]any{"page": p})
	require.NoError(t, err)
	assert.Equal(t, "overridden/foo", out)

	out, err = r.RenderString(`blog/{{ .page.Date.Format "2006/01" }}/{{ slug .page }}`, map[string]any{"page": p})
	require.NoError(t, err)
	assert.Equal(t, "blog/2020/03/foo", out)

	out, err = r.RenderString(`{{ .page | date "%Y-%m-%d" }}`, map[string]any{"page": p})
	require.NoError(t, err)
	assert.Equal(t, "2020-03-04", out)
}

func TestRenderString_Errors(t *testing.T) {
	r := NewStringRenderer()

	_, err := r.RenderString("{{ .missing }}", map[string]any{"page": nil})
	require.Error(t, err)

	_, err = r.RenderString("{{ unknownfilter .page }}", map[string]any{})
	require.Error(t, err)

	_, err = r.RenderString("{{ .page.NoSuchField }}", map[string]any{"page": testPage(t, nil)})
	require.Error(t, err)
}

func TestRenderString_CachesParsedTemplates(t *testing.T) {
	r := NewStringRenderer()
	for i := 0; i < 3; i++ {
		_, err := r.RenderString("x/{{ .n }}", map[string]any{"n": i})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, r.strings.Len())
}

func TestResolve_CandidateOrderBeforeExtension(t *testing.T) {
	r, err := New(templatesFS())
	require.NoError(t, err)

	name, ext, err := r.Resolve([]string{"", "feed", "page"})
	require.NoError(t, err)
	assert.Equal(t, "feed.html", name)
	assert.Equal(t, ".html", ext)

	name, ext, err = r.Resolve([]string{"missing", "rss", "page"})
	require.NoError(t, err)
	assert.Equal(t, "rss.xml", name, "a later candidate only wins when earlier ones have no extension match")
	assert.Equal(t, ".xml", ext)

	_, _, err = r.Resolve([]string{"nope", "", "notes"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTemplate))
	assert.True(t, serrors.IsCategory(err, serrors.CategoryTemplate))
}

func TestRenderNamed(t *testing.T) {
	r, err := New(templatesFS())
	require.NoError(t, err)
	p := testPage(t, map[string]any{"title": "Hello & co"})

	res, err := r.RenderNamed(p.Templates(), map[string]any{"page": p})
	require.NoError(t, err)
	assert.Equal(t, "page.html", res.Name)
	assert.Equal(t, "<title>Hello &amp; co</title><main><p>hi</p></main>", string(res.Body))

	res, err = r.RenderNamed([]string{"rss"}, map[string]any{"page": p})
	require.NoError(t, err)
	assert.Equal(t, "<link>https://example.org/blog/post</link>", string(res.Body))
}

func TestNew_ParseError(t *testing.T) {
	_, err := New(fstest.MapFS{"bad.html": {Data: []byte(`{{ if }}`)}})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryTemplate))
}

func TestFuncs(t *testing.T) {
	got, err := canonify("https://www.example.org", "/relative/link/image.png")
	require.NoError(t, err)
	assert.Equal(t, "https://www.example.org/relative/link/image.png", got)

	abs := "https://www.website.com/relative/link/image.png"
	got, err = canonify("https://www.example.org", abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	media, err := canonifyMedia("https://example.org", `<p><img src="/a.png" alt="a"><video src="b.mp4"></video><a href="/x">x</a></p>`)
	require.NoError(t, err)
	assert.Equal(t, `<p><img src="https://example.org/a.png" alt="a"/><video src="https://example.org/b.mp4"></video><a href="/x">x</a></p>`, string(media))

	assert.Equal(t, "Hello World", title("hello world"))

	when, err := metadata.ParseDate("2021-06-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2021-06-01T10:00:00Z", isoformat(when))
}
