package builder

import (
	"errors"
	"fmt"
	"path"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/reader"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/walker"
)

func testConfig() *config.Config {
	return &config.Config{
		Content: config.ContentConfig{IndexName: "_index", Extensions: []string{".md"}},
	}
}

func md(front string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("---\n" + front + "\n---\nbody\n")}
}

func build(t *testing.T, cfg *config.Config, fsys fstest.MapFS, opts ...Option) (*content.Site, error) {
	t.Helper()
	return New(cfg, fsys, reader.NewMarkdownReader(), render.NewStringRenderer(), opts...).Build()
}

func mustBuild(t *testing.T, cfg *config.Config, fsys fstest.MapFS, opts ...Option) *content.Site {
	t.Helper()
	site, err := build(t, cfg, fsys, opts...)
	require.NoError(t, err)
	return site
}

func names(pages []*content.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Name
	}
	return out
}

func TestBuild_TreeAndNavigation(t *testing.T) {
	site := mustBuild(t, testConfig(), fstest.MapFS{
		"index.md":      md("slug: home"),
		"blog/post2.md": md("slug: post2\ndate: 2020-02-01\ntitle: B"),
		"blog/post1.md": md("slug: post1\ndate: 2020-01-01\ntitle: A"),
	})

	top := site.Top
	assert.Equal(t, config.RootSectionName, top.Name)
	assert.True(t, top.IsRoot())
	require.Len(t, top.Pages, 1)
	assert.Nil(t, top.Index)
	require.Len(t, top.Subsections, 1)

	blog := top.Subsections[0]
	assert.Equal(t, "blog", blog.Name)
	assert.Same(t, top, blog.Parent())

	sorted := blog.Sorted()
	assert.Equal(t, []string{"post1", "post2"}, names(sorted))
	assert.Same(t, sorted[1], sorted[0].Next())
	assert.Nil(t, sorted[0].Prev())

	assert.Equal(t, "home", top.Pages[0].URL())
	assert.Equal(t, "blog/post1", sorted[0].URL())
	assert.Equal(t, "<p>body</p>\n", string(sorted[0].Content))
	assert.NotEmpty(t, sorted[0].Fingerprint)
}

func TestBuild_Categories(t *testing.T) {
	cfg := testConfig()
	cfg.Categories = config.Categories{{Group: "tags", Name: "tag"}}

	site := mustBuild(t, cfg, fstest.MapFS{
		"one.md": md("tags: [a, b]"),
		"two.md": md("tags: [b, c]"),
	})

	require.Len(t, site.Categories, 1)
	tags := site.Categories[0]
	assert.Equal(t, "tag", tags.Name)
	assert.Equal(t, "tags", tags.Group)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tags.Values())

	assert.Equal(t, []string{"one", "two"}, names(tags.Item("b").Pages()))
	assert.Equal(t, []string{"one"}, names(tags.Item("a").Pages()))
	assert.Equal(t, "tags/b", tags.Item("b").URL())
}

func TestBuild_SectionURLOverride(t *testing.T) {
	cfg := testConfig()
	cfg.URL = map[string]string{"overridden": "overridden/{{ .page | slug }}"}

	site := mustBuild(t, cfg, fstest.MapFS{
		"nested/overridden/file.md": md("slug: foo"),
		"nested/plain.md":           md("slug: bar"),
	})

	sec := site.Section("nested/overridden")
	require.NotNil(t, sec)
	assert.Equal(t, "overridden/{{ .page | slug }}", sec.Override)
	assert.Equal(t, "overridden/foo", sec.Pages[0].URL())
	assert.Equal(t, "nested/bar", site.Section("nested").Pages[0].URL())
}

func TestRootOverrideUsesTopName(t *testing.T) {
	cfg := testConfig()
	cfg.URL = map[string]string{config.RootSectionName: "pages/{{ .page.Name }}"}

	site := mustBuild(t, cfg, fstest.MapFS{"about.md": md("title: About")})
	assert.Equal(t, "pages/about", site.Top.Pages[0].URL())
}

func TestIndexPages(t *testing.T) {
	site := mustBuild(t, testConfig(), fstest.MapFS{
		"_index.md":      md("title: Home"),
		"docs/_index.md": md("title: Docs"),
		"docs/a.md":      md("title: A"),
		"empty/sub/x.md": md("title: X"),
	})

	require.NotNil(t, site.Top.Index)
	assert.True(t, site.Top.Index.IsIndex())
	assert.Empty(t, site.Top.Pages)

	docs := site.Section("docs")
	require.NotNil(t, docs)
	assert.Equal(t, "Docs", docs.Index.Title())
	assert.Equal(t, []string{"a"}, names(docs.Pages))

	empty := site.Section("empty")
	require.NotNil(t, empty, "directories without files are still sections")
	assert.Empty(t, empty.Pages)
	assert.Nil(t, empty.Index)
	assert.Len(t, empty.Subsections, 1)
}

func TestDuplicateIndexIsRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Content.Extensions = []string{".md", ".markdown"}

	_, err := build(t, cfg, fstest.MapFS{
		"docs/_index.md":       md("title: one"),
		"docs/_index.markdown": md("title: two"),
	})
	require.Error(t, err)
	se, ok := serrors.As(err)
	require.True(t, ok)
	assert.Equal(t, serrors.CategoryContent, se.Category)
	assert.Equal(t, []string{"_index.markdown", "_index.md"}, se.Context["files"])
}

func TestBuildFailures(t *testing.T) {
	cfg := testConfig()
	cfg.Categories = config.Categories{{Group: "tags", Name: "tag"}}

	cases := map[string]struct {
		fsys     fstest.MapFS
		category serrors.ErrorCategory
	}{
		"malformed front matter": {
			fsys:     fstest.MapFS{"a.md": {Data: []byte("---\ntitle: [unclosed\n---\nbody")}},
			category: serrors.CategoryContent,
		},
		"missing closing fence": {
			fsys:     fstest.MapFS{"a.md": {Data: []byte("---\ntitle: x\nbody")}},
			category: serrors.CategoryContent,
		},
		"nested category value": {
			fsys:     fstest.MapFS{"a.md": md("tags:\n  nested: value")},
			category: serrors.CategoryContent,
		},
		"category value escapes its group": {
			fsys: fstest.MapFS{
				"a.md":         md("tags: [\"../blog/post\"]"),
				"blog/post.md": md("title: Post"),
			},
			category: serrors.CategoryContent,
		},
		"bad date": {
			fsys:     fstest.MapFS{"a.md": md("date: not a date")},
			category: serrors.CategoryContent,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			site, err := build(t, cfg, tc.fsys)
			require.Error(t, err)
			assert.Nil(t, site)
			se, ok := serrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tc.category, se.Category)
			assert.True(t, se.IsFatal())
			assert.Equal(t, "a.md", se.Context["path"])
		})
	}
}

func TestOverrideFailureAbortsBuild(t *testing.T) {
	cfg := testConfig()
	cfg.URL = map[string]string{"blog": "{{ .page.Missing }}"}

	_, err := build(t, cfg, fstest.MapFS{"blog/a.md": md("title: A")})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryTemplate))
}

type fakeLastmod map[string]time.Time

func (f fakeLastmod) LastModified(p string) (time.Time, bool, error) {
	if p == "/content/broken.md" {
		return time.Time{}, false, errors.New("boom")
	}
	when, ok := f[p]
	return when, ok, nil
}

func TestLastmodFromHistory(t *testing.T) {
	when := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	src := fakeLastmod{"/content/tracked.md": when, "/content/explicit.md": when}

	site := mustBuild(t, testConfig(), fstest.MapFS{
		"tracked.md":  md("title: T"),
		"explicit.md": md("lastmod: 2020-01-01"),
		"broken.md":   md("title: B"),
		"new.md":      md("title: N"),
	}, WithLastmod(src, "/content"))

	byName := map[string]*content.Page{}
	for _, p := range site.Pages() {
		byName[p.Name] = p
	}
	assert.Equal(t, when, byName["tracked"].Lastmod())
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), byName["explicit"].Lastmod())
	assert.True(t, byName["broken"].Lastmod().IsZero())
	assert.True(t, byName["new"].Lastmod().IsZero())
}

// scriptedWalker replays a fixed pre-order listing.
type scriptedWalker []walker.Dir

func (s scriptedWalker) Walk(_ string, fn walker.WalkFunc) error {
	for _, d := range s {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func TestBuildTree_RejectsOutOfOrderWalk(t *testing.T) {
	w := scriptedWalker{
		{Path: ".", Subdirs: []string{"a", "b"}},
		{Path: "b"},
		{Path: "a/x"},
	}
	_, err := New(testConfig(), fstest.MapFS{}, reader.NewMarkdownReader(), render.NewStringRenderer(), WithWalker(w)).BuildTree()
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryInternal))
}

// generatedTree builds a nested listing with a mix of index and plain pages.
func generatedTree(depth, fanout int) fstest.MapFS {
	fsys := fstest.MapFS{}
	var grow func(dir string, level int)
	grow = func(dir string, level int) {
		for i := 0; i < fanout; i++ {
			fsys[path.Join(dir, fmt.Sprintf("p%d.md", i))] = md(fmt.Sprintf("title: T%d\ndate: 2020-01-%02d\ntags: [t%d, shared]", (fanout-i)%2, i+1, i))
		}
		if level%2 == 0 {
			fsys[path.Join(dir, "_index.md")] = md("title: index")
		}
		if level == depth {
			return
		}
		for i := 0; i < fanout; i++ {
			grow(path.Join(dir, fmt.Sprintf("d%d", i)), level+1)
		}
	}
	grow(".", 0)
	return fsys
}

func TestTreeProperties(t *testing.T) {
	fsys := generatedTree(3, 3)
	cfg := testConfig()
	cfg.Categories = config.Categories{{Group: "tags", Name: "tag"}}
	site := mustBuild(t, cfg, fsys)

	t.Run("single root and unique rel", func(t *testing.T) {
		roots := 0
		seen := map[string]bool{}
		for _, s := range site.Sections() {
			if s.Parent() == nil {
				roots++
			}
			assert.False(t, seen[s.Rel], "duplicate rel %s", s.Rel)
			seen[s.Rel] = true
			if p := s.Parent(); p != nil {
				assert.Equal(t, p.Rel, path.Dir(s.Rel))
				assert.Contains(t, p.Subsections, s)
			}
		}
		assert.Equal(t, 1, roots)
	})

	t.Run("every file maps to exactly one page slot", func(t *testing.T) {
		placed := map[string]int{}
		for _, s := range site.Sections() {
			for _, p := range s.Pages {
				assert.False(t, p.IsIndex())
				assert.Same(t, s, p.Section())
				placed[p.Source]++
			}
			if s.Index != nil {
				assert.True(t, s.Index.IsIndex())
				placed[s.Index.Source]++
			}
		}
		assert.Len(t, placed, len(fsys))
		for src, n := range placed {
			assert.Equal(t, 1, n, src)
			assert.Contains(t, fsys, src)
		}
	})

	t.Run("category items unique and complete", func(t *testing.T) {
		tags := site.Category("tags")
		require.NotNil(t, tags)
		seen := map[string]bool{}
		for _, item := range tags.Items {
			assert.False(t, seen[item.Value])
			seen[item.Value] = true
		}
		for _, p := range site.Pages() {
			for _, v := range p.Metadata.Strings("tags") {
				item := tags.Item(v)
				require.NotNil(t, item, v)
				assert.Contains(t, item.Pages(), p)
			}
		}
	})

	t.Run("sorted order and navigation agree", func(t *testing.T) {
		for _, s := range site.Sections() {
			sorted := s.Sorted()
			if len(sorted) == 0 {
				continue
			}
			assert.Nil(t, sorted[0].Prev())
			assert.Nil(t, sorted[len(sorted)-1].Next())
			for i := 0; i+1 < len(sorted); i++ {
				assert.Same(t, sorted[i+1], sorted[i].Next())
				assert.Same(t, sorted[i], sorted[i+1].Prev())
				assert.False(t, sorted[i+1].Date().Before(sorted[i].Date()))
			}
		}
	})
}

func TestOverridePrecedenceForEverySectionPage(t *testing.T) {
	fsys := generatedTree(2, 2)
	cfg := testConfig()
	cfg.URL = map[string]string{"d1": "custom/{{ .page.Section.Rel }}/{{ .page | slug }}"}
	site := mustBuild(t, cfg, fsys)

	checked := 0
	for _, s := range site.Sections() {
		for _, p := range s.AllPages() {
			if s.Name == "d1" {
				assert.Equal(t, path.Join("custom", s.Rel, p.Slug()), p.URL())
				checked++
			} else {
				assert.Equal(t, p.DefaultURL(), p.URL())
			}
		}
	}
	assert.Positive(t, checked)
}
