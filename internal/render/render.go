// Package render turns a loaded page and its declared shell into a complete
// HTML document.
//
// Rendering is a pure function of its inputs: the page body is executed once
// against the site/page context (so pages can reference {{ .Site.Title }} or
// {{ .Page.Title }}), then slotted into the shell's single content placeholder
// as pre-rendered HTML. The shell never re-expands the inserted content.
package render

import (
	"bytes"
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/pages"
	"git.home.luguber.info/inful/sitegen/internal/templates"
)

// Site is the site-wide template context.
type Site struct {
	Title   string
	BaseURL string
}

// PageView is the per-page template context. Git fields stay zero-valued when
// the build does not annotate pages.
type PageView struct {
	Title        string
	SourcePath   string
	OutputPath   string
	Params       map[string]any
	LastModified time.Time
	CommitHash   string
	Author       string
}

// Context is what both the page body and the shell execute against. Content
// is empty while the body itself renders and carries the rendered body when
// the shell runs.
type Context struct {
	Site    Site
	Page    PageView
	Content template.HTML
}

// Document renders one page into its declared shell.
//
// An unknown template name is a lookup failure listing the available shells;
// body or shell execution failures are render failures. No side effects.
func Document(store *templates.Store, site Site, pg pages.Page) ([]byte, error) {
	shell, ok := store.Lookup(pg.Template)
	if !ok {
		return nil, errors.UnknownTemplate(pg.SourcePath, pg.Template, store.Names())
	}

	view := pageView(pg)

	content, err := expandBody(site, view, pg)
	if err != nil {
		return nil, err
	}

	var doc bytes.Buffer
	err = shell.Tmpl.Execute(&doc, Context{Site: site, Page: view, Content: template.HTML(content)})
	if err != nil {
		return nil, errors.RenderFailed(pg.SourcePath, err)
	}
	return doc.Bytes(), nil
}

// expandBody executes the page body as a template of its own. Bodies are
// usually plain HTML and pass through unchanged; actions they do contain are
// resolved here exactly once.
func expandBody(site Site, view PageView, pg pages.Page) (string, error) {
	tmpl, err := template.New(pg.SourcePath).Option("missingkey=error").Parse(pg.Body)
	if err != nil {
		return "", errors.RenderFailed(pg.SourcePath, err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, Context{Site: site, Page: view}); err != nil {
		return "", errors.RenderFailed(pg.SourcePath, err)
	}
	return body.String(), nil
}

func pageView(pg pages.Page) PageView {
	view := PageView{
		Title:      pg.Title,
		SourcePath: pg.SourcePath,
		OutputPath: pg.OutputPath,
		Params:     pg.Params,
	}
	if pg.GitInfo != nil {
		view.LastModified = pg.GitInfo.LastModified
		view.CommitHash = pg.GitInfo.CommitHash
		view.Author = pg.GitInfo.Author
	}
	return view
}
