// Package errors provides a lightweight structured error type (SiteError)
// used to classify build failures by category and severity.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a site build error for classification
type ErrorCategory string

const (
	// User-facing configuration errors
	CategoryConfig ErrorCategory = "config"

	// Content loading errors (unreadable files, malformed front matter, bad metadata)
	CategoryContent ErrorCategory = "content"

	// Filesystem errors while walking content or writing output
	CategoryFileSystem ErrorCategory = "filesystem"

	// Template lookup and rendering errors
	CategoryTemplate ErrorCategory = "template"

	// Build orchestration errors
	CategoryBuild    ErrorCategory = "build"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the build
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// SiteError is a structured error with category, severity and context
type SiteError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteError) Error() string {
	msg := e.Message
	if path, ok := e.Context["path"]; ok {
		msg = fmt.Sprintf("%s [%v]", msg, path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, msg, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, msg)
}

// Unwrap implements error unwrapping
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteError) WithContext(key string, value any) *SiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether the error aborts the build.
func (e *SiteError) IsFatal() bool {
	return e.Severity == SeverityFatal
}

// New creates a new SiteError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SiteError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As finds the first SiteError in err's chain.
func As(err error) (*SiteError, bool) {
	var se *SiteError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCategory checks if an error (or any error it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := As(err); ok {
		return se.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SiteError
func GetCategory(err error) ErrorCategory {
	if se, ok := As(err); ok {
		return se.Category
	}
	return CategoryInternal
}
