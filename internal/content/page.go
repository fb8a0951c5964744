package content

import (
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/metadata"
)

// Kind names the template variable a page is bound to.
const (
	KindPage     = "page"
	KindCategory = "category"
	KindItem     = "item"
)

// Page is one content file: its rendered body, metadata and identity.
type Page struct {
	// Name is the source file name without extension.
	Name string
	// Source is the slash path of the file relative to the content root.
	Source string
	// Content is the rendered HTML body.
	Content template.HTML
	// Fingerprint identifies the source front matter and body.
	Fingerprint string

	Metadata *metadata.Metadata

	section *Section
	isIndex bool

	url         string
	urlResolved bool
}

// NewPage creates a page owned by section. The page is not attached; the
// caller adds it with Section.AddPage or Section.SetIndex.
func NewPage(name, source, body string, meta *metadata.Metadata, section *Section, isIndex bool) *Page {
	if meta == nil {
		meta = metadata.Empty()
	}
	return &Page{
		Name:     name,
		Source:   source,
		Content:  template.HTML(body), // #nosec G203 -- body is rendered from trusted site content
		Metadata: meta,
		section:  section,
		isIndex:  isIndex,
	}
}

// Kind returns KindPage.
func (p *Page) Kind() string { return KindPage }

// Section returns the owning section.
func (p *Page) Section() *Section { return p.section }

// IsIndex reports whether the page is its section's index page.
func (p *Page) IsIndex() bool { return p.isIndex }

// Title returns the title metadata.
func (p *Page) Title() string { return p.Metadata.Title }

// Date returns the date metadata (zero when absent).
func (p *Page) Date() time.Time { return p.Metadata.Date }

// Lastmod returns the last modification time, falling back to Date.
func (p *Page) Lastmod() time.Time {
	if !p.Metadata.Lastmod.IsZero() {
		return p.Metadata.Lastmod
	}
	return p.Metadata.Date
}

// Slug returns the slug metadata, or the page name when none is set.
func (p *Page) Slug() string {
	if p.Metadata.Slug != "" {
		return p.Metadata.Slug
	}
	return p.Name
}

// Templates returns the template names to try, most specific first.
func (p *Page) Templates() []string {
	names := make([]string, 0, 3)
	if t := p.Metadata.Template; t != "" {
		names = append(names, t)
	}
	if p.isIndex {
		names = append(names, "index")
	}
	return append(names, "page")
}

// Next returns the page after p in its section's sorted order, or nil at the
// end. Index pages are not part of the order and always return nil.
func (p *Page) Next() *Page {
	sorted := p.section.Sorted()
	i := indexOf(sorted, p)
	if i < 0 || i+1 >= len(sorted) {
		return nil
	}
	return sorted[i+1]
}

// Prev returns the page before p in its section's sorted order, or nil at the
// start.
func (p *Page) Prev() *Page {
	sorted := p.section.Sorted()
	i := indexOf(sorted, p)
	if i <= 0 {
		return nil
	}
	return sorted[i-1]
}

// indexOf locates p by identity; pages with equal date and title stay distinct.
func indexOf(pages []*Page, p *Page) int {
	for i, candidate := range pages {
		if candidate == p {
			return i
		}
	}
	return -1
}
