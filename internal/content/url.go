package content

import (
	"errors"
	"fmt"
	"path"
	"strings"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// ErrInvalidURL is returned when an override renders to an unusable path.
var ErrInvalidURL = errors.New("invalid url")

// StringRenderer renders a template string against a variable environment.
type StringRenderer interface {
	RenderString(tmpl string, vars map[string]any) (string, error)
}

// DefaultURL returns "{section.rel}/{slug}".
func (p *Page) DefaultURL() string {
	return path.Join(p.section.URL(), p.Slug())
}

// URL returns the memoized URL. Before ResolveURL runs it falls back to the
// default shape for sections without an override, and returns "" for pages
// whose section has one.
func (p *Page) URL() string {
	if p.urlResolved {
		return p.url
	}
	if p.section != nil && p.section.Override != "" {
		return ""
	}
	return p.DefaultURL()
}

// ResolveURL computes and caches the page URL. When the owning section has an
// override template it is rendered with the single binding "page"; otherwise
// the default shape is used. Later calls return the cached value.
func (p *Page) ResolveURL(r StringRenderer) (string, error) {
	if p.urlResolved {
		return p.url, nil
	}
	u := p.DefaultURL()
	if tmpl := p.section.Override; tmpl != "" {
		rendered, err := r.RenderString(tmpl, map[string]any{KindPage: p})
		if err != nil {
			return "", serrors.URLResolutionFailed(p.Source, p.section.Name, err)
		}
		if u, err = cleanURL(rendered); err != nil {
			return "", serrors.URLResolutionFailed(p.Source, p.section.Name, err)
		}
	}
	p.url = u
	p.urlResolved = true
	return u, nil
}

// cleanURL normalises a rendered override into a relative slash path.
func cleanURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	u = strings.TrimLeft(u, "/")
	if u == "" {
		return "", fmt.Errorf("%w: override rendered an empty path", ErrInvalidURL)
	}
	u = path.Clean(u)
	if u == "." || u == ".." || strings.HasPrefix(u, "../") {
		return "", fmt.Errorf("%w: %q escapes the output root", ErrInvalidURL, raw)
	}
	return u, nil
}

// ResolveURLs resolves every page URL in the site. Run it once after the tree
// is complete so later readers only see cached values.
func (s *Site) ResolveURLs(r StringRenderer) error {
	for _, p := range s.Pages() {
		if _, err := p.ResolveURL(r); err != nil {
			return err
		}
	}
	return nil
}
