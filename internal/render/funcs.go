package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/metadata"
)

// Funcs returns the functions available to every template. Arguments are
// ordered so the value can arrive through a pipeline:
//
//	{{ .page | slug }}
//	{{ .page | date "%Y-%m-%d" }}
//	{{ .item.URL | canonify .settings.Site.BaseURL }}
func Funcs() map[string]any {
	return map[string]any{
		"slug":           slug,
		"date":           date,
		"datetime":       metadata.ParseDate,
		"isoformat":      isoformat,
		"title":          title,
		"canonify":       canonify,
		"canonify_media": canonifyMedia,
	}
}

func slug(p *content.Page) (string, error) {
	if p == nil {
		return "", fmt.Errorf("slug: no page")
	}
	return p.Slug(), nil
}

// date formats the page date with a strftime pattern.
func date(format string, p *content.Page) (string, error) {
	if p == nil {
		return "", fmt.Errorf("date: no page")
	}
	return strftime.Format(format, p.Date()), nil
}

func isoformat(t time.Time) string {
	return t.Format(time.RFC3339)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// canonify resolves link against base. Absolute links are returned unchanged.
func canonify(base, link string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("canonify: base %q: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("canonify: link %q: %w", link, err)
	}
	return b.ResolveReference(ref).String(), nil
}

var mediaTags = map[string]bool{"img": true, "video": true}

// canonifyMedia rewrites the src attribute of img and video elements in an
// HTML fragment to absolute URLs.
func canonifyMedia(base string, fragment any) (htmltemplate.HTML, error) {
	var src string
	switch v := fragment.(type) {
	case htmltemplate.HTML:
		src = string(v)
	case string:
		src = v
	default:
		return "", fmt.Errorf("canonify_media: unsupported value %T", fragment)
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return "", fmt.Errorf("canonify_media: %w", err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := rewriteMedia(n, base); err != nil {
			return "", err
		}
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("canonify_media: %w", err)
		}
	}
	return htmltemplate.HTML(buf.String()), nil // #nosec G203 -- re-rendered from parsed site content
}

func rewriteMedia(n *html.Node, base string) error {
	if n.Type == html.ElementNode && mediaTags[n.Data] {
		for i, attr := range n.Attr {
			if attr.Key != "src" {
				continue
			}
			abs, err := canonify(base, attr.Val)
			if err != nil {
				return err
			}
			n.Attr[i].Val = abs
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := rewriteMedia(c, base); err != nil {
			return err
		}
	}
	return nil
}
