package content

import (
	"path"
	"sort"
)

// Section is one directory of the content tree.
type Section struct {
	// Name is the directory base name ("_top" for the content root).
	Name string
	// Rel is the slash path relative to the content root ("." for the root).
	Rel string
	// Override is the URL template applied to pages of this section, if any.
	Override string

	Subsections []*Section
	Pages       []*Page
	Index       *Page

	parent *Section
}

// NewSection creates a section under parent. parent is nil only for the root.
func NewSection(name, rel string, parent *Section) *Section {
	return &Section{Name: name, Rel: rel, parent: parent}
}

// Parent returns the enclosing section, or nil for the root.
func (s *Section) Parent() *Section { return s.parent }

// IsRoot reports whether s is the tree root.
func (s *Section) IsRoot() bool { return s.parent == nil }

// AddSubsection appends child, preserving walk order.
func (s *Section) AddSubsection(child *Section) {
	s.Subsections = append(s.Subsections, child)
}

// AddPage appends a non-index page, preserving file listing order.
func (s *Section) AddPage(p *Page) {
	s.Pages = append(s.Pages, p)
}

// SetIndex installs the section's index page.
func (s *Section) SetIndex(p *Page) {
	s.Index = p
}

// AllPages returns the ordinary pages followed by the index page, if any.
func (s *Section) AllPages() []*Page {
	all := make([]*Page, 0, len(s.Pages)+1)
	all = append(all, s.Pages...)
	if s.Index != nil {
		all = append(all, s.Index)
	}
	return all
}

// Sorted returns the non-index pages ordered by (date, title). Pages with
// equal keys keep their listing order.
func (s *Section) Sorted() []*Page {
	return SortPages(s.Pages)
}

// Ancestors returns the sections from the root down to s's parent.
func (s *Section) Ancestors() []*Section {
	var chain []*Section
	for p := s.parent; p != nil; p = p.parent {
		chain = append([]*Section{p}, chain...)
	}
	return chain
}

// URL returns the section's directory path, used as the default URL prefix
// of its pages.
func (s *Section) URL() string {
	return path.Clean(s.Rel)
}

// SortPages returns a copy of pages ordered by (date, title), stable.
func SortPages(pages []*Page) []*Page {
	sorted := append([]*Page(nil), pages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].Date(), sorted[j].Date()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return sorted[i].Title() < sorted[j].Title()
	})
	return sorted
}
