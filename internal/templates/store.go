// Package templates loads the named HTML shells that pages render into.
//
// Each shell must contain exactly one content placeholder ({{ .Content }}).
// A shell without the placeholder could never frame a page, and one with
// several would duplicate page content, so both are rejected at load time.
package templates

import (
	stderrors "errors"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// Ext is the file extension shells must carry.
const Ext = ".html"

// placeholderPattern matches the content placeholder action.
var placeholderPattern = regexp.MustCompile(`\{\{-?\s*\.Content\s*-?\}\}`)

// Template is one named shell, parsed once per build.
type Template struct {
	Name   string
	Source string
	Tmpl   *template.Template
}

// Store maps template names to parsed shells for one build invocation.
type Store struct {
	templates map[string]*Template
}

// Load reads every shell under dir into a Store.
//
// Template names are forward-slash relative paths minus the extension, so
// "blog/post.html" is addressed as "blog/post". Hidden files and directories
// are skipped; non-HTML files are ignored.
func Load(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.SourceDirMissing("templates", dir)
	}

	store := &Store{templates: make(map[string]*Template)}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.HasSuffix(d.Name(), Ext) {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), Ext)

		entry, parseErr := parseFile(name, path)
		if parseErr != nil {
			return parseErr
		}
		store.templates[name] = entry
		return nil
	})
	if walkErr != nil {
		var se *errors.SiteError
		if stderrors.As(walkErr, &se) {
			return nil, walkErr
		}
		return nil, errors.ReadFailed(dir, walkErr)
	}

	return store, nil
}

// parseFile validates the placeholder contract and parses one shell.
func parseFile(name, path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ReadFailed(path, err)
	}
	source := string(raw)

	switch n := len(placeholderPattern.FindAllStringIndex(source, -1)); {
	case n == 0:
		return nil, errors.PlaceholderMissing(name)
	case n > 1:
		return nil, errors.PlaceholderRepeated(name, n)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, errors.TemplateParseFailed(path, err)
	}

	return &Template{Name: name, Source: source, Tmpl: tmpl}, nil
}

// Lookup returns the named shell.
func (s *Store) Lookup(name string) (*Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// Names returns all template names in sorted order for stable logs and errors.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded shells.
func (s *Store) Len() int {
	return len(s.templates)
}
