package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" help:"Directory to scaffold the site into (default: current directory)"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	dir := i.Dir
	if dir == "" {
		dir = "."
	}
	return RunInit(dir, i.Force)
}

// RunInit scaffolds a minimal working site: configuration, one shell
// template, one page, one stylesheet.
func RunInit(dir string, force bool) error {
	fmt.Printf("Initializing site in %s\n", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WriteFailed(dir, err)
	}

	cfgPath := filepath.Join(dir, config.DefaultConfigFile)
	if err := config.Init(cfgPath, force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", cfgPath)

	page, err := starterPageDocument()
	if err != nil {
		return err
	}
	files := []struct {
		rel     string
		content string
	}{
		{"templates/base.html", starterTemplate},
		{"pages/index.md", page},
		{"assets/style.css", starterStylesheet},
	}
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.rel))
		if err := writeStarter(path, f.content, force); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}

	fmt.Println("Done. Run 'sitegen serve' in that directory to preview the site.")
	return nil
}

// starterPageDocument assembles the scaffold page from serialized front
// matter and the body, the same way the loader takes it apart.
func starterPageDocument() (string, error) {
	style := frontmatter.Style{Newline: "\n"}
	fm, err := frontmatter.SerializeYAML(map[string]any{
		"template": "base",
		"title":    "Home",
	}, style)
	if err != nil {
		return "", errors.InternalError("serializing starter front matter", err)
	}
	return string(frontmatter.Join(fm, []byte(starterPageBody), true, style)), nil
}

// writeStarter writes one scaffold file atomically, refusing to clobber
// existing work unless forced.
func writeStarter(path, content string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal,
			fmt.Sprintf("%s already exists (use --force to overwrite)", path)).
			WithContext("path", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WriteFailed(filepath.Dir(path), err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return errors.WriteFailed(path, err)
	}
	return nil
}

const starterTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Page.Title }} | {{ .Site.Title }}</title>
<link rel="stylesheet" href="/style.css">
</head>
<body>
<main>
{{ .Content }}
</main>
<footer>
<p>{{ .Site.Title }}</p>
</footer>
</body>
</html>
`

const starterPageBody = `
# Welcome

Your site is up. Edit this page under pages/, add more pages next to it,
and keep 'sitegen serve' running to preview changes live.
`

const starterStylesheet = `body {
  max-width: 42rem;
  margin: 2rem auto;
  padding: 0 1rem;
  font-family: system-ui, sans-serif;
  line-height: 1.6;
}
`
