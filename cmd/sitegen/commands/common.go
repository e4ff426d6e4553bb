package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Site configuration file path" default:"site.yaml"`
	LogLevel  string           `name:"log-level" help:"Log level (debug|info|warn|error), overrides the config file"`
	LogFormat string           `name:"log-format" help:"Log format (text|json), overrides the config file"`
	Quiet     bool             `short:"q" help:"Only log errors"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site once and exit"`
	Serve ServeCmd `cmd:"" help:"Serve the site locally, rebuilding on source changes"`
	Init  InitCmd  `cmd:"" help:"Scaffold a new site"`
	Check CheckCmd `cmd:"" help:"Build to a temporary directory and verify internal links"`
}

// AfterApply runs after flag parsing; setup logging once so that config
// loading already logs in the requested shape. Commands re-apply it after the
// config is loaded, with flags keeping precedence.
func (c *CLI) AfterApply() error {
	c.applyLogging(config.Default())
	return nil
}

// applyLogging installs the process-wide slog logger. Flags win over cfg.
func (c *CLI) applyLogging(cfg *config.Config) {
	level := cfg.Log.Level
	if c.LogLevel != "" {
		level = config.NormalizeLogLevel(c.LogLevel)
	}
	slogLevel := level.SlogLevel()
	if c.Quiet {
		slogLevel = slog.LevelError
	}

	format := cfg.Log.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// LoadConfig loads the site configuration (all defaults when the file is
// absent) and re-applies logging with the loaded settings.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, err
	}
	c.applyLogging(cfg)
	return cfg, nil
}

// SiteRoot is the directory holding the config file. Relative directories in
// the configuration resolve against it.
func (c *CLI) SiteRoot() string {
	if c.Config == "" {
		return "."
	}
	return filepath.Dir(c.Config)
}

// Verbose reports whether debug-level detail was requested.
func (c *CLI) Verbose() bool {
	return config.NormalizeLogLevel(c.LogLevel) == config.LogLevelDebug
}
