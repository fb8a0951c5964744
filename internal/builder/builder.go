// Package builder turns a content directory into a fully resolved site model.
package builder

import (
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metadata"
	"git.home.luguber.info/inful/sitegen/internal/reader"
	"git.home.luguber.info/inful/sitegen/internal/walker"
)

const defaultIndexName = "_index"

// LastmodSource reports when a file was last changed, e.g. from version
// control history. ok is false when nothing is known about the file.
type LastmodSource interface {
	LastModified(path string) (when time.Time, ok bool, err error)
}

// Builder constructs a content.Site from a content tree.
type Builder struct {
	cfg      *config.Config
	fsys     fs.FS
	walker   walker.DirectoryWalker
	reader   reader.ContentReader
	renderer content.StringRenderer
	logger   *slog.Logger

	lastmod     LastmodSource
	contentRoot string
}

// Option configures a Builder.
type Option func(*Builder)

// WithWalker replaces the default fs.FS walker.
func WithWalker(w walker.DirectoryWalker) Option {
	return func(b *Builder) { b.walker = w }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithLastmod fills missing lastmod metadata from src. contentRoot is the OS
// path of the content tree, used to turn page sources into file paths.
func WithLastmod(src LastmodSource, contentRoot string) Option {
	return func(b *Builder) {
		b.lastmod = src
		b.contentRoot = contentRoot
	}
}

// New returns a Builder reading content files from fsys.
func New(cfg *config.Config, fsys fs.FS, r reader.ContentReader, sr content.StringRenderer, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		fsys:     fsys,
		reader:   r,
		renderer: sr,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.walker == nil {
		b.walker = &walker.FSWalker{FS: fsys, Extensions: cfg.Content.Extensions}
	}
	return b
}

// Build constructs the section tree, derives categories and resolves every
// page URL. Any failure aborts the build and no site is returned.
func (b *Builder) Build() (*content.Site, error) {
	start := time.Now()

	top, err := b.BuildTree()
	if err != nil {
		return nil, err
	}

	site := content.NewSite(b.cfg, top)
	site.DeriveCategories(b.cfg.Categories)
	for _, c := range site.Categories {
		b.logger.Debug("Derived category",
			logfields.Category(c.Group),
			logfields.Count(len(c.Items)),
			slog.Int("pages", len(c.Pages)))
	}

	if err := site.ResolveURLs(b.renderer); err != nil {
		return nil, err
	}

	counts := site.Counts()
	b.logger.Info("Built content model",
		logfields.BuildID(site.BuildID),
		slog.Int("sections", counts.Sections),
		slog.Int("pages", counts.Pages),
		slog.Int("categories", counts.Categories),
		logfields.Since(start))
	return site, nil
}

// BuildTree walks the content tree once and returns the root section.
//
// The walk is pre-order, so the parent of each directory is tracked with a
// stack holding the current section once per subdirectory it announced. Each
// step pops the section that announced it.
func (b *Builder) BuildTree() (*content.Section, error) {
	var (
		top     *content.Section
		pending []*content.Section
	)

	err := b.walker.Walk(".", func(dir walker.Dir) error {
		var parent *content.Section
		if top != nil {
			if len(pending) == 0 {
				return serrors.InternalError("walker reported "+dir.Path+" after the tree was complete", nil)
			}
			parent = pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			if want := path.Dir(dir.Path); want != parent.Rel {
				return serrors.InternalError("walker reported "+dir.Path+" out of order", nil).
					WithContext("expected_parent", parent.Rel)
			}
		}

		sec, err := b.buildSection(dir, parent)
		if err != nil {
			return err
		}
		if parent == nil {
			top = sec
		} else {
			parent.AddSubsection(sec)
		}

		for range dir.Subdirs {
			pending = append(pending, sec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if top == nil {
		return nil, serrors.WalkFailed(".", fs.ErrNotExist)
	}
	return top, nil
}

func (b *Builder) buildSection(dir walker.Dir, parent *content.Section) (*content.Section, error) {
	rel := path.Clean(dir.Path)
	name := path.Base(rel)
	if parent == nil {
		name = config.RootSectionName
	}

	sec := content.NewSection(name, rel, parent)
	if tmpl, ok := b.cfg.URLOverride(name); ok {
		sec.Override = tmpl
	}

	if dup := b.duplicateIndexes(dir.Files); len(dup) > 1 {
		return nil, serrors.DuplicateIndex(rel, dup)
	}

	for _, file := range dir.Files {
		page, err := b.buildPage(sec, file)
		if err != nil {
			return nil, err
		}
		if page.IsIndex() {
			sec.SetIndex(page)
		} else {
			sec.AddPage(page)
		}
	}

	b.logger.Debug("Built section",
		logfields.Section(rel),
		logfields.Count(len(sec.Pages)),
		slog.Bool("has_index", sec.Index != nil),
		slog.Bool("override", sec.Override != ""))
	return sec, nil
}

func (b *Builder) buildPage(sec *content.Section, file string) (*content.Page, error) {
	source := path.Join(sec.Rel, file)

	src, err := fs.ReadFile(b.fsys, source)
	if err != nil {
		return nil, serrors.ContentReadFailed(source, err)
	}

	read, err := b.reader.Read(source, src)
	if err != nil {
		return nil, err
	}

	meta, err := metadata.New(read.Metadata, b.cfg.Categories.Groups()...)
	if err != nil {
		key := ""
		var invalid *metadata.InvalidError
		if errors.As(err, &invalid) {
			key = invalid.Key
		}
		return nil, serrors.MetadataInvalid(source, key, err)
	}

	if b.lastmod != nil && meta.Lastmod.IsZero() {
		b.fillLastmod(meta, source)
	}

	name := stem(file)
	page := content.NewPage(name, source, read.Body, meta, sec, name == b.indexName())
	page.Fingerprint = read.Fingerprint
	return page, nil
}

// fillLastmod is best effort: history lookups never fail the build.
func (b *Builder) fillLastmod(meta *metadata.Metadata, source string) {
	file := filepath.Join(b.contentRoot, filepath.FromSlash(source))
	when, ok, err := b.lastmod.LastModified(file)
	if err != nil {
		b.logger.Warn("Failed to read last modification time", logfields.Path(source), logfields.Error(err))
		return
	}
	if ok {
		meta.SetDefault(metadata.KeyLastmod, when.UTC())
	}
}

func (b *Builder) indexName() string {
	if b.cfg.Content.IndexName != "" {
		return b.cfg.Content.IndexName
	}
	return defaultIndexName
}

func (b *Builder) duplicateIndexes(files []string) []string {
	var found []string
	for _, f := range files {
		if stem(f) == b.indexName() {
			found = append(found, f)
		}
	}
	sort.Strings(found)
	return found
}

func stem(file string) string {
	return strings.TrimSuffix(file, path.Ext(file))
}
