package errors

import "strings"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "invalid configuration: "+reason).
		WithContext("field", field)
}

func ConfigDecodeFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "failed to decode configuration").
		WithContext("path", path)
}

// Content errors

func ContentReadFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryContent, SeverityFatal, "failed to read content file").
		WithContext("path", path)
}

func FrontMatterInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryContent, SeverityFatal, "malformed front matter").
		WithContext("path", path)
}

func MetadataInvalid(path, key string, cause error) *SiteError {
	return Wrap(cause, CategoryContent, SeverityFatal, "invalid metadata value for "+key).
		WithContext("path", path).
		WithContext("key", key)
}

func DuplicateIndex(dir string, files []string) *SiteError {
	return New(CategoryContent, SeverityFatal, "multiple index files in one directory: "+strings.Join(files, ", ")).
		WithContext("path", dir).
		WithContext("files", files)
}

// Filesystem errors

func WalkFailed(dir string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "content directory walk failed").
		WithContext("path", dir)
}

func OutputFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "failed to write output").
		WithContext("path", path)
}

// Template errors

func TemplateNotFound(candidates []string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "no template found (tried "+strings.Join(candidates, ", ")+")").
		WithContext("candidates", candidates)
}

func TemplateFailed(name string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "template rendering failed").
		WithContext("template", name)
}

func URLResolutionFailed(page, section string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityFatal, "url override rendering failed").
		WithContext("page", page).
		WithContext("section", section)
}

// Build errors

func BuildFailed(stage string, cause error) *SiteError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
