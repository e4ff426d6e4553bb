package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/linkcheck"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Source string `help:"Site root directory (defaults to the config file's directory)"`
}

// Run builds the site into a throwaway directory and verifies that every
// internal reference in the rendered HTML resolves inside the output tree.
func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	siteRoot := root.SiteRoot()
	if c.Source != "" {
		siteRoot = c.Source
	}

	tmp, err := os.MkdirTemp("", "sitegen-check-*")
	if err != nil {
		return errors.WriteFailed("temporary output directory", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	dirs := cfg.Dirs.Resolve(siteRoot)
	dirs.Output = tmp

	if _, err := build.New(cfg, dirs, nil).Build(context.Background()); err != nil {
		return err
	}

	report, err := linkcheck.Check(tmp)
	if err != nil {
		return err
	}

	fmt.Printf("Checked %d internal references across %d documents\n",
		report.Checked, report.Documents)
	if report.OK() {
		fmt.Println("No broken references")
		return nil
	}

	for _, b := range report.Broken {
		fmt.Printf("  %s: %s (%s)\n", b.Page, b.URL, b.Tag)
	}
	return errors.New(errors.CategoryLookup, errors.SeverityFatal,
		fmt.Sprintf("%d broken internal references", len(report.Broken)))
}
