package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/gitinfo"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/reader"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// Publisher runs complete builds for one configuration.
type Publisher struct {
	cfg      *config.Config
	dest     string
	logger   *slog.Logger
	recorder metrics.Recorder
	reader   reader.ContentReader
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithDestination overrides the configured output directory.
func WithDestination(dir string) Option {
	return func(p *Publisher) {
		if dir != "" {
			p.dest = dir
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithReader replaces the Markdown content reader.
func WithReader(r reader.ContentReader) Option {
	return func(p *Publisher) {
		if r != nil {
			p.reader = r
		}
	}
}

// New returns a Publisher for cfg.
func New(cfg *config.Config, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		dest:     cfg.Destination(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		reader:   reader.NewMarkdownReader(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Destination returns the output directory.
func (p *Publisher) Destination() string { return p.dest }

// Stages returns the build stages in execution order.
func (p *Publisher) Stages() []StageDef {
	return []StageDef{
		{Name: StagePrepareOutput, Fn: stagePrepareOutput},
		{Name: StageLoadTemplates, Fn: stageLoadTemplates},
		{Name: StageBuildContent, Fn: stageBuildContent},
		{Name: StageRender, Fn: stageRender},
		{Name: StageCopyStatic, Fn: stageCopyStatic},
		{Name: StagePromote, Fn: stagePromote},
	}
}

// Build runs every stage. The report is returned even when the build fails.
func (p *Publisher) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport()
	bs := &BuildState{Publisher: p, Report: report}

	err := runStages(ctx, bs, p.Stages())
	if err != nil {
		abortStaging(bs.StageDir, p.logger)
	}
	report.finish()

	p.recorder.ObserveBuildDuration(report.Duration())
	p.recorder.IncBuildOutcome(string(report.Outcome))

	if err == nil && p.cfg.Build.Report {
		if perr := report.Persist(p.dest); perr != nil {
			p.logger.Warn("Failed to persist build report", logfields.Path(p.dest), logfields.Error(perr))
		}
	}

	attrs := []any{
		logfields.BuildID(report.BuildID),
		slog.String("outcome", string(report.Outcome)),
		logfields.DurationMS(msec(report.Duration())),
		slog.String("summary", report.Summary()),
	}
	if err != nil {
		p.logger.Error("Build failed", append(attrs, logfields.Error(err))...)
		return report, err
	}
	p.logger.Info("Build complete", attrs...)
	return report, nil
}

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	stage, err := beginStaging(bs.Publisher.dest, bs.Publisher.logger)
	if err != nil {
		return serrors.OutputFailed(bs.Publisher.dest, err)
	}
	bs.StageDir = stage
	return nil
}

func stageLoadTemplates(_ context.Context, bs *BuildState) error {
	dir := bs.Publisher.cfg.TemplateDir()
	info, err := os.Stat(dir)
	if err != nil {
		return serrors.ConfigInvalid("content.templates", fmt.Sprintf("template directory %s: %v", dir, err))
	}
	if !info.IsDir() {
		return serrors.ConfigInvalid("content.templates", dir+" is not a directory")
	}

	r, err := render.New(os.DirFS(dir))
	if err != nil {
		return err
	}
	bs.Renderer = r
	bs.Publisher.logger.Debug("Loaded templates", logfields.Path(dir), logfields.Count(len(r.Names())))
	return nil
}

func stageBuildContent(_ context.Context, bs *BuildState) error {
	p := bs.Publisher
	root := p.cfg.ContentRoot()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return serrors.WalkFailed(root, err)
	}

	opts := []builder.Option{builder.WithLogger(p.logger)}
	if p.cfg.Build.GitLastmod {
		lookup, err := gitinfo.Open(root)
		if err != nil {
			p.logger.Warn("Git lastmod disabled", logfields.Path(root), logfields.Error(err))
		} else {
			opts = append(opts, builder.WithLastmod(lookup, root))
		}
	}

	site, err := builder.New(p.cfg, os.DirFS(root), p.reader, bs.Renderer, opts...).Build()
	if err != nil {
		return err
	}
	bs.Site = site

	counts := site.Counts()
	bs.Report.BuildID = site.BuildID
	bs.Report.Entities = counts
	p.recorder.SetSiteEntities("sections", counts.Sections)
	p.recorder.SetSiteEntities("pages", counts.Pages)
	p.recorder.SetSiteEntities("categories", counts.Categories)
	p.recorder.SetSiteEntities("items", counts.Items)
	return nil
}

// entity is anything the render stage writes to the output tree.
type entity interface {
	Kind() string
	URL() string
	Templates() []string
}

func stageRender(ctx context.Context, bs *BuildState) error {
	p := bs.Publisher
	site := bs.Site

	emit := func(e entity, source string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		vars := map[string]any{
			e.Kind():   e,
			"site":     site,
			"settings": p.cfg,
		}
		res, err := bs.Renderer.RenderNamed(e.Templates(), vars)
		if err != nil {
			if se, ok := serrors.As(err); ok {
				se.WithContext(e.Kind(), source)
			}
			return err
		}
		rel, err := OutputPath(e.URL(), res.Ext)
		if err != nil {
			return serrors.OutputFailed(e.URL(), err)
		}
		if prior, dup := bs.Report.Outputs[rel]; dup {
			p.logger.Warn("Output path written twice", logfields.Path(rel),
				logfields.Template(res.Name), slog.String("previous_template", prior))
		}
		if _, err := writeOutput(bs.StageDir, rel, res.Body); err != nil {
			return serrors.OutputFailed(rel, err)
		}
		bs.Report.Outputs[rel] = res.Name
		p.logger.Debug("Rendered", slog.String("kind", e.Kind()), logfields.URL(e.URL()), logfields.Template(res.Name), logfields.Path(rel))
		return nil
	}

	for _, page := range site.Pages() {
		if err := emit(page, page.Source); err != nil {
			return err
		}
		bs.Report.RenderedPages++
	}
	for _, c := range site.Categories {
		if err := emit(c, c.Group); err != nil {
			return err
		}
		bs.Report.RenderedCategories++
		for _, item := range c.Items {
			if err := emit(item, item.Value); err != nil {
				return err
			}
			bs.Report.RenderedItems++
		}
	}

	p.recorder.AddRendered(content.KindPage, bs.Report.RenderedPages)
	p.recorder.AddRendered(content.KindCategory, bs.Report.RenderedCategories)
	p.recorder.AddRendered(content.KindItem, bs.Report.RenderedItems)
	return nil
}

func stageCopyStatic(_ context.Context, bs *BuildState) error {
	p := bs.Publisher
	dir := p.cfg.StaticDir()
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		p.logger.Warn("Static directory not found", logfields.Path(dir))
		return nil
	}
	n, err := copyDir(dir, bs.StageDir)
	if err != nil {
		return serrors.OutputFailed(dir, err)
	}
	bs.Report.StaticFiles = n
	p.recorder.AddRendered("static", n)
	p.logger.Debug("Copied static assets", logfields.Path(dir), logfields.Count(n))
	return nil
}

func stagePromote(_ context.Context, bs *BuildState) error {
	if err := finalizeStaging(bs.StageDir, bs.Publisher.dest, bs.Publisher.logger); err != nil {
		return serrors.OutputFailed(bs.Publisher.dest, err)
	}
	bs.StageDir = ""
	return nil
}
