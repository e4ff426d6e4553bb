package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSiteError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SiteError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestSiteError_WithContext(t *testing.T) {
	err := New(CategoryLookup, SeverityFatal, "unknown template").
		WithContext("page", "about.html").
		WithContext("template", "missing")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["page"] != "about.html" {
		t.Errorf("Context[page] = %v, want about.html", err.Context["page"])
	}

	if err.Context["template"] != "missing" {
		t.Errorf("Context[template] = %v, want missing", err.Context["template"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	lookupErr := New(CategoryLookup, SeverityFatal, "lookup error")
	wrappedErr := fmt.Errorf("stage wrapper: %w", lookupErr)
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match lookup category", configErr, CategoryLookup, false},
		{"lookup error matches lookup category", lookupErr, CategoryLookup, true},
		{"wrapped lookup error still matches", wrappedErr, CategoryLookup, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestBuildFailedAdoptsCauseCategory(t *testing.T) {
	cause := UnknownTemplate("about.html", "missing", []string{"base"})
	err := BuildFailed("render_pages", cause)

	if err.Category != CategoryLookup {
		t.Errorf("Category = %v, want %v", err.Category, CategoryLookup)
	}
	if !stdErrors.Is(err, cause) {
		t.Error("BuildFailed should wrap its cause")
	}
	if err.Context["stage"] != "render_pages" {
		t.Errorf("Context[stage] = %v, want render_pages", err.Context["stage"])
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("ConfigNotFound", func(t *testing.T) {
		err := ConfigNotFound("/path/to/site.yaml")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/path/to/site.yaml" {
			t.Errorf("Context[path] = %v, want /path/to/site.yaml", err.Context["path"])
		}
	})

	t.Run("UnknownTemplate", func(t *testing.T) {
		err := UnknownTemplate("about.html", "missing", []string{"base", "post"})
		if err.Category != CategoryLookup {
			t.Errorf("Category = %v, want %v", err.Category, CategoryLookup)
		}
		if err.Context["template"] != "missing" {
			t.Errorf("Context[template] = %v, want missing", err.Context["template"])
		}
	})

	t.Run("CopyFailed", func(t *testing.T) {
		cause := fmt.Errorf("permission denied")
		err := CopyFailed("assets/a.css", "public/a.css", cause)
		if err.Category != CategoryIO {
			t.Errorf("Category = %v, want %v", err.Category, CategoryIO)
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})
}

func TestExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil error", nil, 0},
		{"config error", ConfigNotFound("x"), 7},
		{"lookup error", UnknownTemplate("p", "t", nil), 11},
		{"io error", WriteFailed("x", fmt.Errorf("disk full")), 11},
		{"server error", ListenFailed(":1313", fmt.Errorf("in use")), 12},
		{"plain error", fmt.Errorf("boom"), 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.code {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.code)
			}
		})
	}
}
