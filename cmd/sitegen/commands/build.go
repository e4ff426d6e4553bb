package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source     string `help:"Site root directory (defaults to the config file's directory)"`
	Output     string `short:"o" help:"Output directory, overrides dirs.output"`
	PrettyURLs bool   `name:"pretty-urls" help:"Render pages/about.html as about/index.html"`
	GitInfo    bool   `name:"git-info" help:"Annotate pages with last-commit metadata from the enclosing git repository"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	b.applyOverrides(cfg)
	return RunBuild(context.Background(), cfg, cfg.Dirs.Resolve(b.siteRoot(root)))
}

// applyOverrides folds the command's flags into cfg. Boolean flags only
// enable; disabling happens in the config file.
func (b *BuildCmd) applyOverrides(cfg *config.Config) {
	if b.PrettyURLs {
		cfg.Build.PrettyURLs = true
	}
	if b.GitInfo {
		cfg.Build.GitInfo = true
	}
	if b.Output != "" {
		cfg.Dirs.Output = b.Output
	}
}

// siteRoot picks the directory relative source paths resolve against.
func (b *BuildCmd) siteRoot(root *CLI) string {
	if b.Source != "" {
		return b.Source
	}
	return root.SiteRoot()
}

// RunBuild performs one full build and reports the outcome on stdout.
func RunBuild(ctx context.Context, cfg *config.Config, dirs config.DirsConfig) error {
	res, err := build.New(cfg, dirs, nil).Build(ctx)
	if err != nil {
		return err
	}

	slog.Debug("build command finished",
		logfields.BuildID(res.BuildID),
		logfields.Pages(res.Pages),
		logfields.Assets(res.Assets))

	// Friendly user-facing summary on stdout; logs go to stderr.
	fmt.Printf("Built %d pages and %d assets to %s in %s\n",
		res.Pages, res.Assets, dirs.Output, res.Duration.Round(time.Millisecond))
	return nil
}
