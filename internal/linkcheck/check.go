package linkcheck

import (
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Broken is one internal reference that does not resolve inside the tree.
type Broken struct {
	Page string // output-relative path of the document holding the reference
	URL  string
	Tag  string
}

// Report summarizes one verification pass over an output tree.
type Report struct {
	Documents int
	Checked   int
	Broken    []Broken
}

// OK reports whether every internal reference resolved.
func (r *Report) OK() bool {
	return len(r.Broken) == 0
}

// Check walks every .html document under outputDir and verifies that each
// internal reference resolves to a file in the tree. Directory references
// ("/", "blog/") resolve through their index.html.
//
// Broken references are findings, not errors; only an unreadable tree fails.
func Check(outputDir string) (*Report, error) {
	report := &Report{}

	walkErr := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.ReadFailed(p, err)
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rel, relErr := filepath.Rel(outputDir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if checkErr := checkDocument(outputDir, rel, report); checkErr != nil {
			return checkErr
		}
		report.Documents++
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(report.Broken, func(i, j int) bool {
		if report.Broken[i].Page != report.Broken[j].Page {
			return report.Broken[i].Page < report.Broken[j].Page
		}
		return report.Broken[i].URL < report.Broken[j].URL
	})

	slog.Debug("link check finished",
		slog.Int("documents", report.Documents),
		slog.Int("checked", report.Checked),
		slog.Int("broken", len(report.Broken)))
	return report, nil
}

func checkDocument(outputDir, rel string, report *Report) error {
	f, err := os.Open(filepath.Join(outputDir, filepath.FromSlash(rel)))
	if err != nil {
		return errors.ReadFailed(rel, err)
	}
	defer func() { _ = f.Close() }()

	refs, err := ExtractRefs(f)
	if err != nil {
		return errors.ReadFailed(rel, err)
	}

	for _, ref := range refs {
		if !isInternal(ref.URL) {
			continue
		}
		report.Checked++
		if !resolves(outputDir, rel, ref.URL) {
			report.Broken = append(report.Broken, Broken{Page: rel, URL: ref.URL, Tag: ref.Tag})
			slog.Debug("broken internal reference",
				logfields.Page(rel),
				logfields.URL(ref.URL))
		}
	}
	return nil
}

// resolves maps one internal reference to a path in the output tree and
// checks it exists. page is the slash-relative path of the referring document.
func resolves(outputDir, page, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	target := u.Path
	if target == "" {
		// Query-only or fragment-only reference: stays on the current page.
		return true
	}

	if !strings.HasPrefix(target, "/") {
		target = path.Join(path.Dir(page), target)
	}
	target = strings.TrimPrefix(path.Clean("/"+target), "/")

	full := filepath.Join(outputDir, filepath.FromSlash(target))
	info, statErr := os.Stat(full)
	if statErr == nil && info.IsDir() {
		info, statErr = os.Stat(filepath.Join(full, "index.html"))
	}
	// A trailing slash means the site serves index.html there.
	if statErr != nil && strings.HasSuffix(raw, "/") {
		info, statErr = os.Stat(filepath.Join(full, "index.html"))
	}
	return statErr == nil && !info.IsDir()
}
