package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySection    = "section"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyTemplate   = "template"
	KeyCategory   = "category"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Category(name string) slog.Attr  { return slog.String(KeyCategory, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Since(start time.Time) slog.Attr { return DurationMS(float64(time.Since(start).Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
