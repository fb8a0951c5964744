package content

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// Site is the fully built content model.
type Site struct {
	Settings   *config.Config
	Top        *Section
	Categories []*Category

	// BuildTime is captured in UTC when the site is created.
	BuildTime time.Time
	// BuildID correlates the log lines and report of one build.
	BuildID string
}

// NewSite wraps a section tree.
func NewSite(settings *config.Config, top *Section) *Site {
	return &Site{
		Settings:  settings,
		Top:       top,
		BuildTime: time.Now().UTC(),
		BuildID:   uuid.NewString(),
	}
}

// Sections returns every section in pre-order, root first. The slice is
// computed from the current tree on each call.
func (s *Site) Sections() []*Section {
	if s.Top == nil {
		return nil
	}
	var out []*Section
	stack := []*Section{s.Top}
	for len(stack) > 0 {
		sec := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, sec)
		for i := len(sec.Subsections) - 1; i >= 0; i-- {
			stack = append(stack, sec.Subsections[i])
		}
	}
	return out
}

// Pages returns every page, index pages included, in section pre-order.
func (s *Site) Pages() []*Page {
	var out []*Page
	for _, sec := range s.Sections() {
		out = append(out, sec.AllPages()...)
	}
	return out
}

// Section returns the section whose relative path is rel, or nil.
func (s *Site) Section(rel string) *Section {
	for _, sec := range s.Sections() {
		if sec.Rel == rel {
			return sec
		}
	}
	return nil
}

// Category returns the category scanning group, or nil.
func (s *Site) Category(group string) *Category {
	for _, c := range s.Categories {
		if c.Group == group {
			return c
		}
	}
	return nil
}

// DeriveCategories builds one category per configured group, in configuration
// order, from the site's current pages.
func (s *Site) DeriveCategories(defs config.Categories) {
	pages := s.Pages()
	s.Categories = make([]*Category, 0, len(defs))
	for _, def := range defs {
		s.Categories = append(s.Categories, DeriveCategory(def.Group, def.Name, pages))
	}
}

// Counts summarises the model for logs and reports.
type Counts struct {
	Sections   int `json:"sections"`
	Pages      int `json:"pages"`
	Categories int `json:"categories"`
	Items      int `json:"items"`
}

// Counts returns the number of entities in the site.
func (s *Site) Counts() Counts {
	c := Counts{Categories: len(s.Categories)}
	for _, sec := range s.Sections() {
		c.Sections++
		c.Pages += len(sec.AllPages())
	}
	for _, cat := range s.Categories {
		c.Items += len(cat.Items)
	}
	return c
}
