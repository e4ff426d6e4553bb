package errors

import (
	"fmt"
	"strings"
)

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func SourceDirMissing(kind, dir string) *SiteError {
	return New(CategoryConfig, SeverityFatal, kind+" directory not found").
		WithContext("dir", dir)
}

func TemplateParseFailed(file string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "template cannot be parsed").
		WithContext("file", file)
}

func PlaceholderMissing(template string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "template has no content placeholder").
		WithContext("template", template)
}

func PlaceholderRepeated(template string, count int) *SiteError {
	return New(CategoryConfig, SeverityFatal, "template has more than one content placeholder").
		WithContext("template", template).
		WithContext("count", count)
}

func PageNoTemplate(file string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "page declares no template").
		WithContext("file", file)
}

func FrontMatterInvalid(file string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "page front matter invalid").
		WithContext("file", file)
}

func MarkdownConvertFailed(file string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "page markdown cannot be converted").
		WithContext("file", file)
}

// Lookup errors

// UnknownTemplate names the missing shell and what could have been chosen,
// because the message ends up on the rebuild page where context fields are
// not shown.
func UnknownTemplate(page, template string, available []string) *SiteError {
	return New(CategoryLookup, SeverityFatal,
		fmt.Sprintf("unknown template %q (available: %s)", template, strings.Join(available, ", "))).
		WithContext("page", page).
		WithContext("template", template).
		WithContext("available", available)
}

// Render errors

func RenderFailed(page string, cause error) *SiteError {
	return Wrap(cause, CategoryRender, SeverityFatal, "page render failed").
		WithContext("page", page)
}

// I/O errors

func ReadFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryIO, SeverityFatal, "read failed").
		WithContext("path", path)
}

func WriteFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryIO, SeverityFatal, "write failed").
		WithContext("path", path)
}

func CopyFailed(src, dst string, cause error) *SiteError {
	return Wrap(cause, CategoryIO, SeverityFatal, "copy failed").
		WithContext("src", src).
		WithContext("dst", dst)
}

// Build pipeline errors

// BuildFailed adopts the cause's category so classification survives the
// stage wrapper (a lookup failure inside render_pages stays a lookup error).
func BuildFailed(stage string, cause error) *SiteError {
	return Wrap(cause, GetCategory(cause), SeverityFatal, "build failed").
		WithContext("stage", stage)
}

// Server errors

func ListenFailed(addr string, cause error) *SiteError {
	return Wrap(cause, CategoryServer, SeverityFatal, "listener bind failed").
		WithContext("addr", addr)
}

func WatchFailed(dir string, cause error) *SiteError {
	return Wrap(cause, CategoryServer, SeverityFatal, "filesystem watch failed").
		WithContext("dir", dir)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
