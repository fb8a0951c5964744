// Package render resolves and executes site templates.
//
// Files ending in .html are parsed with html/template and files ending in .xml
// with text/template. Templates are addressed by their slash path relative to
// the template directory, so "page.html" and "partials/nav.html" can include
// one another.
package render

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"

	lru "github.com/hashicorp/golang-lru/v2"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// ErrNoTemplate is returned when none of the candidate names resolve.
var ErrNoTemplate = errors.New("no template found")

// Extensions lists the template extensions in lookup priority order.
var Extensions = []string{".html", ".xml"}

const stringCacheSize = 256

// Renderer executes named templates from a template directory and ad hoc
// template strings. It is safe for concurrent use once constructed.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template

	strings *lru.Cache[string, *texttemplate.Template]
}

// Result is the output of a named render.
type Result struct {
	// Name is the template file that was executed, e.g. "page.html".
	Name string
	// Ext is the template extension, e.g. ".html".
	Ext  string
	Body []byte
}

// NewStringRenderer returns a Renderer without named templates.
func NewStringRenderer() *Renderer {
	cache, _ := lru.New[string, *texttemplate.Template](stringCacheSize)
	return &Renderer{
		html:    htmltemplate.New("").Funcs(Funcs()).Option("missingkey=error"),
		text:    texttemplate.New("").Funcs(Funcs()).Option("missingkey=error"),
		strings: cache,
	}
}

// New parses every .html and .xml file below the root of fsys.
func New(fsys fs.FS) (*Renderer, error) {
	r := NewStringRenderer()
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return serrors.WalkFailed(p, err)
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		switch path.Ext(p) {
		case ".html":
			return r.parseHTML(fsys, p)
		case ".xml":
			return r.parseText(fsys, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) parseHTML(fsys fs.FS, name string) error {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return serrors.TemplateFailed(name, err)
	}
	if _, err := r.html.New(name).Parse(string(src)); err != nil {
		return serrors.TemplateFailed(name, err)
	}
	return nil
}

func (r *Renderer) parseText(fsys fs.FS, name string) error {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return serrors.TemplateFailed(name, err)
	}
	if _, err := r.text.New(name).Parse(string(src)); err != nil {
		return serrors.TemplateFailed(name, err)
	}
	return nil
}

// Names returns the parsed template names.
func (r *Renderer) Names() []string {
	var names []string
	for _, t := range r.html.Templates() {
		if t.Name() != "" {
			names = append(names, t.Name())
		}
	}
	for _, t := range r.text.Templates() {
		if t.Name() != "" {
			names = append(names, t.Name())
		}
	}
	return names
}

// Resolve returns the first candidate that names an existing template. Every
// extension is tried for one candidate before moving to the next. Empty
// candidates are skipped.
func (r *Renderer) Resolve(candidates []string) (name, ext string, err error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, e := range Extensions {
			if r.has(c+e, e) {
				return c + e, e, nil
			}
		}
	}
	return "", "", serrors.TemplateNotFound(nonEmpty(candidates), ErrNoTemplate)
}

func (r *Renderer) has(name, ext string) bool {
	switch ext {
	case ".html":
		return r.html.Lookup(name) != nil
	case ".xml":
		return r.text.Lookup(name) != nil
	}
	return false
}

// RenderNamed executes the first resolvable candidate with vars.
func (r *Renderer) RenderNamed(candidates []string, vars map[string]any) (*Result, error) {
	name, ext, err := r.Resolve(candidates)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch ext {
	case ".html":
		err = r.html.ExecuteTemplate(&buf, name, vars)
	default:
		err = r.text.ExecuteTemplate(&buf, name, vars)
	}
	if err != nil {
		return nil, serrors.TemplateFailed(name, err)
	}
	return &Result{Name: name, Ext: ext, Body: buf.Bytes()}, nil
}

// RenderString executes tmpl as a text template. Parsed templates are cached
// by source.
func (r *Renderer) RenderString(tmpl string, vars map[string]any) (string, error) {
	t, ok := r.strings.Get(tmpl)
	if !ok {
		parsed, err := texttemplate.New("string").Funcs(Funcs()).Option("missingkey=error").Parse(tmpl)
		if err != nil {
			return "", fmt.Errorf("parse template %q: %w", tmpl, err)
		}
		r.strings.Add(tmpl, parsed)
		t = parsed
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template %q: %w", tmpl, err)
	}
	return buf.String(), nil
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
