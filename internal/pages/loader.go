// Package pages loads page sources (HTML or Markdown fragments carrying YAML
// front matter) into the ordered records a build renders.
package pages

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// Recognized page source extensions.
const (
	ExtHTML     = ".html"
	ExtMarkdown = ".md"
)

// GitInfo carries last-commit metadata attached to a page when the build
// annotates pages from the enclosing git repository.
type GitInfo struct {
	CommitHash   string
	LastModified time.Time
	Author       string
}

// Page is one source fragment ready for rendering. Created by Load, consumed
// once per build.
type Page struct {
	SourcePath string // slash path relative to the pages dir
	OutputPath string // slash path relative to the output dir
	Template   string // declared shell name
	Title      string
	Params     map[string]any // front matter fields beyond template/title
	Body       string         // HTML fragment (Markdown already converted)
	GitInfo    *GitInfo
}

// markdown converts Markdown page bodies. GFM tables and strikethrough,
// stable heading anchors, raw HTML passed through unmodified.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// Load reads every page under dir, ordered by source path.
//
// A missing directory, a page without a template declaration, malformed front
// matter, and an unreadable file are all load-time failures; nothing is
// silently skipped.
func Load(dir string, prettyURLs bool) ([]Page, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.SourceDirMissing("pages", dir)
	}

	var rels []string
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ExtHTML && ext != ExtMarkdown {
			return nil
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return nil, errors.ReadFailed(dir, walkErr)
	}
	sort.Strings(rels)

	loaded := make([]Page, 0, len(rels))
	for _, rel := range rels {
		page, err := loadFile(dir, rel, prettyURLs)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, page)
	}
	return loaded, nil
}

// loadFile reads and interprets a single page source.
func loadFile(dir, rel string, prettyURLs bool) (Page, error) {
	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return Page{}, errors.ReadFailed(rel, err)
	}

	fm, body, had, _, err := frontmatter.Split(raw)
	if err != nil {
		return Page{}, errors.FrontMatterInvalid(rel, err)
	}
	if !had {
		return Page{}, errors.PageNoTemplate(rel)
	}

	fields, err := frontmatter.ParseYAML(fm)
	if err != nil {
		return Page{}, errors.FrontMatterInvalid(rel, err)
	}

	templateName, _ := fields["template"].(string)
	if templateName == "" {
		return Page{}, errors.PageNoTemplate(rel)
	}

	title, _ := fields["title"].(string)
	if title == "" {
		title = TitleFromFilename(rel)
	}

	params := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "template" || k == "title" {
			continue
		}
		params[k] = v
	}

	bodyHTML := string(body)
	if filepath.Ext(rel) == ExtMarkdown {
		var buf bytes.Buffer
		if err := markdown.Convert(body, &buf); err != nil {
			return Page{}, errors.MarkdownConvertFailed(rel, err)
		}
		bodyHTML = buf.String()
	}

	return Page{
		SourcePath: rel,
		OutputPath: OutputPath(rel, prettyURLs),
		Template:   templateName,
		Title:      title,
		Params:     params,
		Body:       bodyHTML,
	}, nil
}

// TitleFromFilename derives a readable default title from a source path:
// "posts/my-first_post.md" becomes "My First Post".
func TitleFromFilename(rel string) string {
	base := path.Base(rel)
	base = strings.TrimSuffix(base, path.Ext(base))
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(cleaned)
}

// OutputPath maps a source path to its location in the output tree.
//
// Flat mapping mirrors the source path with an .html extension. Pretty URLs
// place each page in its own directory ("about.html" serves at /about/),
// except index pages which stay where they are.
func OutputPath(rel string, pretty bool) string {
	ext := path.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	if !pretty || path.Base(stem) == "index" {
		return stem + ".html"
	}
	return stem + "/index.html"
}
