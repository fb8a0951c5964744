package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/reader"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Categories bool `help:"Also list categories and their items" default:"true" negatable:""`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, logger, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	site, err := builder.New(cfg, os.DirFS(cfg.ContentRoot()), reader.NewMarkdownReader(), render.NewStringRenderer(),
		builder.WithLogger(logger)).Build()
	if err != nil {
		return err
	}

	w := out(g)
	printSections(w, site)
	if l.Categories {
		printCategories(w, site)
	}
	return nil
}

func printSections(w io.Writer, site *content.Site) {
	for _, sec := range site.Sections() {
		indent := strings.Repeat("  ", len(sec.Ancestors()))
		_, _ = fmt.Fprintf(w, "%s%s/\n", indent, sec.Name)
		if sec.Index != nil {
			_, _ = fmt.Fprintf(w, "%s  * %s -> %s\n", indent, sec.Index.Source, sec.Index.URL())
		}
		for _, p := range sec.Sorted() {
			_, _ = fmt.Fprintf(w, "%s  - %s -> %s\n", indent, p.Source, p.URL())
		}
	}
}

func printCategories(w io.Writer, site *content.Site) {
	for _, c := range site.Categories {
		_, _ = fmt.Fprintf(w, "%s (%s) -> %s\n", c.Name, c.Group, c.URL())
		for _, item := range c.Items {
			_, _ = fmt.Fprintf(w, "  %s -> %s [%d]\n", item.Value, item.URL(), len(item.Pages()))
		}
	}
}
