// Package config loads and validates the site configuration (site.yaml).
// Every field has a default; a missing config file means an all-defaults site.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// DefaultConfigFile is the conventional site configuration file name.
const DefaultConfigFile = "site.yaml"

// Config represents the site configuration
type Config struct {
	Title   string       `yaml:"title"`
	BaseURL string       `yaml:"base_url,omitempty"`
	Dirs    DirsConfig   `yaml:"dirs"`
	Build   BuildConfig  `yaml:"build"`
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
}

// DirsConfig names the source and output directories, relative to the site root.
type DirsConfig struct {
	Pages     string `yaml:"pages"`
	Templates string `yaml:"templates"`
	Assets    string `yaml:"assets"`
	Output    string `yaml:"output"`
}

// Resolve anchors every relative directory at root. Absolute paths pass
// through unchanged.
func (d DirsConfig) Resolve(root string) DirsConfig {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	return DirsConfig{
		Pages:     join(d.Pages),
		Templates: join(d.Templates),
		Assets:    join(d.Assets),
		Output:    join(d.Output),
	}
}

// BuildConfig represents build behavior toggles
type BuildConfig struct {
	// PrettyURLs maps pages/about.html to about/index.html instead of about.html.
	PrettyURLs bool `yaml:"pretty_urls"`
	// GitInfo annotates pages with last-commit metadata from the enclosing repository.
	GitInfo bool `yaml:"git_info"`
}

// ServerConfig represents development server configuration
type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
	// LiveReload is a tri-state so an omitted field can default to enabled.
	LiveReload *bool `yaml:"live_reload,omitempty"`
	// Debounce is the quiet window collapsing filesystem event bursts into one
	// rebuild, as a duration string ("300ms").
	Debounce string `yaml:"debounce,omitempty"`
	// PollInterval schedules periodic full rebuilds as a safety net for
	// filesystems where change notification is unreliable. "0s" disables it.
	PollInterval string `yaml:"poll_interval,omitempty"`
	// HistoryDB is the path of the sqlite build-history database. Empty keeps
	// history in memory only.
	HistoryDB string `yaml:"history_db,omitempty"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Default returns a fully populated configuration with conventional values.
func Default() *Config {
	liveReload := true
	return &Config{
		Title: "My Site",
		Dirs: DirsConfig{
			Pages:     "pages",
			Templates: "templates",
			Assets:    "assets",
			Output:    "public",
		},
		Server: ServerConfig{
			Bind:         "127.0.0.1",
			Port:         1313,
			LiveReload:   &liveReload,
			Debounce:     "300ms",
			PollInterval: "0s",
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Load loads configuration from the specified file. The file must exist.
func Load(configPath string) (*Config, error) {
	// Load .env files first so ${VAR} expansion below can see them.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	// Unmarshal over defaults so omitted fields keep conventional values.
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}

	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}

	return cfg, nil
}

// LoadOrDefault loads the configuration file if present and falls back to
// Default() when it is not. Directory path conventions make the file optional.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		loadEnvFiles()
		cfg := Default()
		if err := ValidateConfig(cfg); err != nil {
			return nil, errors.ConfigInvalid(configPath, err)
		}
		return cfg, nil
	}
	return Load(configPath)
}

// applyDefaults fills any field an explicit file left empty.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	if cfg.Dirs.Pages == "" {
		cfg.Dirs.Pages = def.Dirs.Pages
	}
	if cfg.Dirs.Templates == "" {
		cfg.Dirs.Templates = def.Dirs.Templates
	}
	if cfg.Dirs.Assets == "" {
		cfg.Dirs.Assets = def.Dirs.Assets
	}
	if cfg.Dirs.Output == "" {
		cfg.Dirs.Output = def.Dirs.Output
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.LiveReload == nil {
		cfg.Server.LiveReload = def.Server.LiveReload
	}
	if cfg.Server.Debounce == "" {
		cfg.Server.Debounce = def.Server.Debounce
	}
	if cfg.Server.PollInterval == "" {
		cfg.Server.PollInterval = def.Server.PollInterval
	}
	cfg.Log.Level = NormalizeLogLevel(string(cfg.Log.Level))
	cfg.Log.Format = NormalizeLogFormat(string(cfg.Log.Format))
}

// LiveReloadEnabled reports whether browsers should be reloaded after rebuilds.
func (s ServerConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// DebounceDuration returns the parsed debounce quiet window.
func (s ServerConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// PollIntervalDuration returns the parsed poll interval; 0 disables polling.
func (s ServerConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.PollInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.New(errors.CategoryConfig, errors.SeverityFatal,
			"configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath)
	}

	example := Default()
	example.Title = "My Site"
	example.BaseURL = "https://example.com"

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.InternalError("failed to marshal example config", err)
	}

	if err := atomic.WriteFile(configPath, bytes.NewReader(data)); err != nil {
		return errors.WriteFailed(configPath, err)
	}

	return nil
}
