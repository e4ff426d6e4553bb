package pages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func writePage(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_MissingDirectory_ReturnsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), false)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestLoad_OrdersPagesBySourcePath(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "zoo.html", "---\ntemplate: base\n---\n<p>z</p>\n")
	writePage(t, dir, "about.html", "---\ntemplate: base\n---\n<p>a</p>\n")
	writePage(t, dir, "blog/first.html", "---\ntemplate: base\n---\n<p>b</p>\n")

	loaded, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "about.html", loaded[0].SourcePath)
	assert.Equal(t, "blog/first.html", loaded[1].SourcePath)
	assert.Equal(t, "zoo.html", loaded[2].SourcePath)
}

func TestLoad_ReadsFrontMatterFields(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "about.html", "---\ntemplate: base\ntitle: About Me\nauthor: inful\n---\n<p>Hello</p>\n")

	loaded, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	pg := loaded[0]
	assert.Equal(t, "base", pg.Template)
	assert.Equal(t, "About Me", pg.Title)
	assert.Equal(t, "<p>Hello</p>\n", pg.Body)
	assert.Equal(t, map[string]any{"author": "inful"}, pg.Params)
	assert.Equal(t, "about.html", pg.OutputPath)
}

func TestLoad_MissingTemplateDeclaration_ReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "naked.html", "<p>no front matter at all</p>\n")

	_, err := Load(dir, false)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
	assert.Contains(t, err.Error(), "declares no template")
}

func TestLoad_EmptyTemplateValue_ReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "empty.html", "---\ntitle: No Shell\n---\n<p>body</p>\n")

	_, err := Load(dir, false)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestLoad_MalformedFrontMatter_ReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "broken.html", "---\ntemplate: [unbalanced\n---\n<p>body</p>\n")

	_, err := Load(dir, false)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestLoad_UnterminatedFrontMatter_ReturnsConfigError(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "open.html", "---\ntemplate: base\n<p>never closed</p>\n")

	_, err := Load(dir, false)
	require.Error(t, err)
	assert.True(t, siteerrors.IsCategory(err, siteerrors.CategoryConfig))
}

func TestLoad_ConvertsMarkdownBodies(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "post.md", "---\ntemplate: base\n---\n# Heading\n\nSome *emphasis*.\n")

	loaded, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	pg := loaded[0]
	assert.Contains(t, pg.Body, "<h1 id=\"heading\">Heading</h1>")
	assert.Contains(t, pg.Body, "<em>emphasis</em>")
	assert.Equal(t, "post.html", pg.OutputPath)
}

func TestLoad_MarkdownKeepsRawHTML(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "raw.md", "---\ntemplate: base\n---\n<div class=\"note\">kept</div>\n")

	loaded, err := Load(dir, false)
	require.NoError(t, err)
	assert.Contains(t, loaded[0].Body, "<div class=\"note\">kept</div>")
}

func TestLoad_SkipsHiddenAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "index.html", "---\ntemplate: base\n---\n<p>home</p>\n")
	writePage(t, dir, ".draft.html", "---\ntemplate: base\n---\n<p>hidden</p>\n")
	writePage(t, dir, "notes.txt", "not a page")
	writePage(t, dir, ".obsidian/cache.md", "---\ntemplate: base\n---\nx\n")

	loaded, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "index.html", loaded[0].SourcePath)
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"about.html", "About"},
		{"posts/my-first_post.md", "My First Post"},
		{"deeply/nested/page-name.html", "Page Name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromFilename(tt.rel), "rel=%s", tt.rel)
	}
}

func TestOutputPath_FlatMapping(t *testing.T) {
	assert.Equal(t, "about.html", OutputPath("about.html", false))
	assert.Equal(t, "posts/hello.html", OutputPath("posts/hello.md", false))
	assert.Equal(t, "index.html", OutputPath("index.md", false))
}

func TestOutputPath_PrettyURLs(t *testing.T) {
	assert.Equal(t, "about/index.html", OutputPath("about.html", true))
	assert.Equal(t, "posts/hello/index.html", OutputPath("posts/hello.md", true))
	assert.Equal(t, "index.html", OutputPath("index.md", true), "index pages stay put")
	assert.Equal(t, "blog/index.html", OutputPath("blog/index.html", true))
}

func TestLoad_PrettyURLMapping(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "about.html", "---\ntemplate: base\n---\n<p>a</p>\n")
	writePage(t, dir, "index.html", "---\ntemplate: base\n---\n<p>home</p>\n")

	loaded, err := Load(dir, true)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "about/index.html", loaded[0].OutputPath)
	assert.Equal(t, "index.html", loaded[1].OutputPath)
}

func TestLoad_DefaultTitleFromFilename(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "my-story.md", "---\ntemplate: base\n---\nbody\n")

	loaded, err := Load(dir, false)
	require.NoError(t, err)
	assert.Equal(t, "My Story", loaded[0].Title)
}
