// Package metadata normalizes raw front matter into the typed fields the site
// model branches on, keeping every other key in a residual map.
package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Reserved keys with special meaning to the content model.
const (
	KeyDate     = "date"
	KeyLastmod  = "lastmod"
	KeySlug     = "slug"
	KeyTitle    = "title"
	KeyTemplate = "template"
)

// ErrNotList is returned when a category key holds a value that cannot be read
// as a list of strings.
var ErrNotList = errors.New("value must be a string or a list of strings")

// ErrUnsafeValue is returned when a category value cannot stand as a single
// URL path segment.
var ErrUnsafeValue = errors.New("value must not contain a path separator or be a dot segment")

// InvalidError reports the key whose value failed normalization.
type InvalidError struct {
	Key string
	Err error
}

func (e *InvalidError) Error() string { return fmt.Sprintf("metadata %q: %v", e.Key, e.Err) }
func (e *InvalidError) Unwrap() error { return e.Err }

// Metadata is the page-scoped view of a content file's front matter.
//
// Lookups for missing keys never fail: they yield zero values, which callers
// treat as "not categorized" or "no override".
type Metadata struct {
	Title    string
	Slug     string
	Template string
	Date     time.Time
	Lastmod  time.Time

	fields map[string]any
	lists  map[string][]string
}

// New normalizes raw front matter. Keys named in listKeys (the configured
// category groups) are coerced to []string: a list keeps its items, a scalar
// becomes a one-element list and blank entries are dropped. Nested maps or
// lists, and values that are not a single path segment, are rejected.
func New(raw map[string]any, listKeys ...string) (*Metadata, error) {
	m := &Metadata{
		fields: make(map[string]any, len(raw)),
		lists:  make(map[string][]string, len(listKeys)),
	}
	for k, v := range raw {
		m.fields[k] = v
	}

	var err error
	if m.Date, err = timeField(m.fields, KeyDate); err != nil {
		return nil, err
	}
	if m.Lastmod, err = timeField(m.fields, KeyLastmod); err != nil {
		return nil, err
	}
	m.Title = stringField(m.fields, KeyTitle)
	m.Slug = stringField(m.fields, KeySlug)
	m.Template = stringField(m.fields, KeyTemplate)

	for _, key := range listKeys {
		v, ok := m.fields[key]
		if !ok || v == nil {
			continue
		}
		values, err := toStrings(v)
		if err != nil {
			return nil, &InvalidError{Key: key, Err: err}
		}
		m.lists[key] = values
		m.fields[key] = values
	}
	return m, nil
}

// Empty returns metadata with no keys.
func Empty() *Metadata {
	m, _ := New(nil)
	return m
}

// Get returns the normalized value stored under key.
func (m *Metadata) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.fields[key]
	return v, ok
}

// String returns the value under key formatted as a string, or "".
func (m *Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	return stringField(m.fields, key)
}

// Strings returns the list stored under a category key. Keys that were not
// normalized as lists fall back to a best-effort conversion; failures yield nil.
func (m *Metadata) Strings(key string) []string {
	if m == nil {
		return nil
	}
	if values, ok := m.lists[key]; ok {
		return values
	}
	v, ok := m.fields[key]
	if !ok || v == nil {
		return nil
	}
	values, err := toStrings(v)
	if err != nil {
		return nil
	}
	return values
}

// HasValue reports whether key holds a non-empty value.
func (m *Metadata) HasValue(key string) bool {
	if m == nil {
		return false
	}
	if values, ok := m.lists[key]; ok {
		return len(values) > 0
	}
	v, ok := m.fields[key]
	if !ok || v == nil {
		return false
	}
	switch vv := v.(type) {
	case string:
		return vv != ""
	case []any:
		return len(vv) > 0
	case []string:
		return len(vv) > 0
	case map[string]any:
		return len(vv) > 0
	}
	return true
}

// Contains reports whether the list under key holds value.
func (m *Metadata) Contains(key, value string) bool {
	for _, v := range m.Strings(key) {
		if v == value {
			return true
		}
	}
	return false
}

// SetDefault stores value under key unless the key is already present.
// Time values for date or lastmod also update the typed field.
func (m *Metadata) SetDefault(key string, value any) bool {
	if _, ok := m.fields[key]; ok {
		return false
	}
	m.fields[key] = value
	if t, ok := value.(time.Time); ok {
		switch key {
		case KeyDate:
			m.Date = t
		case KeyLastmod:
			m.Lastmod = t
		}
	}
	return true
}

// Keys returns the metadata keys in sorted order.
func (m *Metadata) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the normalized fields.
func (m *Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

func timeField(fields map[string]any, key string) (time.Time, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch vv := v.(type) {
	case time.Time:
		return vv, nil
	case string:
		t, err := ParseDate(vv)
		if err != nil {
			return time.Time{}, &InvalidError{Key: key, Err: err}
		}
		fields[key] = t
		return t, nil
	default:
		return time.Time{}, &InvalidError{Key: key, Err: fmt.Errorf("unsupported date value %T", v)}
	}
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toStrings(v any) ([]string, error) {
	var raw []any
	switch vv := v.(type) {
	case []string:
		for _, item := range vv {
			raw = append(raw, item)
		}
	case []any:
		raw = vv
	default:
		raw = []any{v}
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, err := scalarString(item)
		if err != nil {
			return nil, err
		}
		if s == "" {
			continue
		}
		if s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeValue, s)
		}
		out = append(out, s)
	}
	return out, nil
}

func scalarString(v any) (string, error) {
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv), nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(vv), nil
	case time.Time:
		return vv.Format("2006-01-02"), nil
	default:
		return "", ErrNotList
	}
}
