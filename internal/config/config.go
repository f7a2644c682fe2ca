package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdredirect/internal/branchname"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/redirect"
)

// Version is the configuration format version understood by Load.
const Version = "1"

// Config is the complete mdredirect configuration.
type Config struct {
	Version  string         `yaml:"version,omitempty"`
	Platform PlatformConfig `yaml:"platform"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Files    FilesConfig    `yaml:"files"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Branch   BranchConfig   `yaml:"branch"`
}

// PlatformConfig selects the hosting platform whose references are rewritten.
type PlatformConfig struct {
	Host           string        `yaml:"host"`
	RedirectHost   string        `yaml:"redirect_host"`
	MirrorPrefixes []string      `yaml:"mirror_prefixes"`
	MatchTimeout   time.Duration `yaml:"match_timeout"`
}

// Redirect converts the section into a redirect.Platform.
func (p PlatformConfig) Redirect() redirect.Platform {
	return redirect.Platform{
		Host:           p.Host,
		RedirectHost:   p.RedirectHost,
		MirrorPrefixes: p.MirrorPrefixes,
	}
}

// MarkdownConfig controls parsing.
type MarkdownConfig struct {
	GFM bool `yaml:"gfm"`
}

// FilesConfig selects which files are processed.
type FilesConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Frontmatter keeps YAML frontmatter out of the rewrite when true.
	Frontmatter *bool `yaml:"frontmatter,omitempty"`
	// OptOutKey names a boolean frontmatter field; false skips the file.
	OptOutKey string `yaml:"opt_out_key"`
}

// FrontmatterEnabled reports whether frontmatter is split off before rewriting.
func (f FilesConfig) FrontmatterEnabled() bool {
	return f.Frontmatter == nil || *f.Frontmatter
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxBody         int64         `yaml:"max_body"`
	Metrics         *bool         `yaml:"metrics,omitempty"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsEnabled reports whether /metrics is served.
func (s ServerConfig) MetricsEnabled() bool {
	return s.Metrics == nil || *s.Metrics
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// BranchConfig holds defaults for branch-name generation.
type BranchConfig struct {
	Prefix           string `yaml:"prefix"`
	AdditionalPrefix string `yaml:"additional_prefix"`
	// Topic is left empty by default so grouped updates get the group topic.
	Topic            string `yaml:"topic"`
	Name             string `yaml:"name"`
	HashedLength     int    `yaml:"hashed_length"`
	Strict           bool   `yaml:"strict"`
}

// Apply fills the template settings of u that are still empty.
func (b BranchConfig) Apply(u branchname.Update) branchname.Update {
	if u.BranchPrefix == "" {
		u.BranchPrefix = b.Prefix
	}
	if u.AdditionalBranchPrefix == "" {
		u.AdditionalBranchPrefix = b.AdditionalPrefix
	}
	if u.BranchTopic == "" {
		u.BranchTopic = b.Topic
	}
	if u.BranchName == "" {
		u.BranchName = b.Name
	}
	if u.HashedBranchLength == 0 {
		u.HashedBranchLength = b.HashedLength
	}
	u.BranchNameStrict = u.BranchNameStrict || b.Strict
	return u
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := applyDefaults(cfg); err != nil {
		panic(fmt.Sprintf("default configuration invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from the specified file.
//
// Environment variables from .env files are loaded first and ${VAR}
// references in the file are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// LoadOrDefault loads configPath when it exists and returns the defaults otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		loadEnvFiles()
		return Default(), nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Debug("Configuration file not found, using defaults", slog.String("path", configPath))
		loadEnvFiles()
		return Default(), nil
	}
	return Load(configPath)
}

// Parse decodes, normalizes, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}

	if cfg.Version != "" && cfg.Version != Version {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", Version).
			Build()
	}

	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
