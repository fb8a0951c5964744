package metadata

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReservedKeys(t *testing.T) {
	m, err := New(map[string]any{
		"title":     "Top Level Page",
		"slug":      "top",
		"template":  "landing",
		"date":      "2013-04-15 00:00:00 -0000",
		"arbitrary": []any{"a", "b", "c"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Top Level Page", m.Title)
	assert.Equal(t, "top", m.Slug)
	assert.Equal(t, "landing", m.Template)
	assert.True(t, m.Date.Equal(time.Date(2013, 4, 15, 0, 0, 0, 0, time.UTC)))

	v, ok := m.Get("date")
	require.True(t, ok)
	assert.IsType(t, time.Time{}, v, "date string is replaced by a time value")

	arbitrary, ok := m.Get("arbitrary")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c"}, arbitrary)
}

func TestNew_TimeValuePassesThrough(t *testing.T) {
	when := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	m, err := New(map[string]any{"date": when})
	require.NoError(t, err)
	assert.Equal(t, when, m.Date)
}

func TestNew_InvalidDate(t *testing.T) {
	_, err := New(map[string]any{"date": "not a date"})
	require.Error(t, err)

	var ie *InvalidError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "date", ie.Key)

	_, err = New(map[string]any{"date": []any{"2020-01-01"}})
	require.Error(t, err)
}

func TestNew_CategoryKeysAreLists(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"list", []any{"a", "b"}, []string{"a", "b"}},
		{"scalar string", "golang", []string{"golang"}},
		{"number", 42, []string{"42"}},
		{"empty string", "", []string{}},
		{"typed list", []string{"x"}, []string{"x"}},
		{"blank entries dropped", []any{"", "  ", "x"}, []string{"x"}},
		{"only blank entries", []any{""}, []string{}},
		{"blank scalar", "   ", []string{}},
		{"typed list with blanks", []string{" ", "y "}, []string{"y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(map[string]any{"tags": tt.raw}, "tags")
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Strings("tags"))
			assert.Equal(t, len(tt.want) > 0, m.HasValue("tags"))
		})
	}
}

func TestNew_CategoryKeyRejectsNestedValues(t *testing.T) {
	_, err := New(map[string]any{"tags": map[string]any{"a": 1}}, "tags")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotList))

	_, err = New(map[string]any{"tags": []any{[]any{"a"}}}, "tags")
	require.Error(t, err)
}

func TestNew_CategoryKeyRejectsPathValues(t *testing.T) {
	for _, raw := range []any{
		[]any{"../blog/post"},
		"a/b",
		[]any{"ok", ".."},
		".",
		`win\path`,
	} {
		_, err := New(map[string]any{"tags": raw}, "tags")
		require.Error(t, err, "%v", raw)
		assert.True(t, errors.Is(err, ErrUnsafeValue))

		var invalid *InvalidError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "tags", invalid.Key)
	}
}

func TestContains_NoCharacterMembership(t *testing.T) {
	m, err := New(map[string]any{"tags": "golang"}, "tags")
	require.NoError(t, err)

	assert.True(t, m.Contains("tags", "golang"))
	assert.False(t, m.Contains("tags", "go"), "scalar values are whole items, not character sets")
}

func TestMissingKeysDegradeGracefully(t *testing.T) {
	m := Empty()

	_, ok := m.Get("tags")
	assert.False(t, ok)
	assert.Nil(t, m.Strings("tags"))
	assert.False(t, m.HasValue("tags"))
	assert.False(t, m.Contains("tags", "a"))
	assert.Equal(t, "", m.String("template"))
	assert.True(t, m.Date.IsZero())

	var nilMeta *Metadata
	assert.False(t, nilMeta.HasValue("tags"))
	assert.Nil(t, nilMeta.Strings("tags"))
}

func TestSetDefault(t *testing.T) {
	m, err := New(map[string]any{"lastmod": "2021-01-01"})
	require.NoError(t, err)

	later := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, m.SetDefault(KeyLastmod, later), "existing values are kept")
	assert.Equal(t, 2021, m.Lastmod.Year())

	m2 := Empty()
	assert.True(t, m2.SetDefault(KeyLastmod, later))
	assert.Equal(t, later, m2.Lastmod)
}

func TestKeysAndMap(t *testing.T) {
	m, err := New(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	copied := m.Map()
	copied["a"] = "changed"
	assert.Equal(t, "x", m.String("a"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2020-01-01", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2010/01/01", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2020-02-01T10:30:00Z", time.Date(2020, 2, 1, 10, 30, 0, 0, time.UTC)},
		{"2020-02-01 10:30", time.Date(2020, 2, 1, 10, 30, 0, 0, time.UTC)},
		{"Jan 2, 2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseDate("yesterday")
	require.Error(t, err)
}
