package config

import (
	"time"

	"git.home.luguber.info/inful/mdredirect/internal/branchname"
	"git.home.luguber.info/inful/mdredirect/internal/redirect"
)

// Default values.
const (
	DefaultServerAddr      = ":8080"
	DefaultMaxBody         = 1 << 20
	DefaultDebounce        = 500 * time.Millisecond
	DefaultOptOutKey       = "redirect_links"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultInclude selects markdown files when files.include is empty.
var DefaultInclude = []string{"**/*.md", "**/*.markdown"}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

func appliers() []DefaultApplier {
	return []DefaultApplier{
		platformDefaults{},
		filesDefaults{},
		loggingDefaults{},
		serverDefaults{},
		watchDefaults{},
		branchDefaults{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range appliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

type platformDefaults struct{}

func (platformDefaults) Domain() string { return "platform" }

func (platformDefaults) ApplyDefaults(cfg *Config) error {
	gh := redirect.GitHub()
	if cfg.Platform.Host == "" {
		cfg.Platform.Host = gh.Host
		if cfg.Platform.MirrorPrefixes == nil {
			cfg.Platform.MirrorPrefixes = gh.MirrorPrefixes
		}
	}
	if cfg.Platform.RedirectHost == "" {
		cfg.Platform.RedirectHost = "redirect." + cfg.Platform.Host
	}
	if cfg.Platform.MatchTimeout <= 0 {
		cfg.Platform.MatchTimeout = redirect.DefaultMatchTimeout
	}
	return nil
}

type filesDefaults struct{}

func (filesDefaults) Domain() string { return "files" }

func (filesDefaults) ApplyDefaults(cfg *Config) error {
	if len(cfg.Files.Include) == 0 {
		cfg.Files.Include = append([]string(nil), DefaultInclude...)
	}
	if cfg.Files.OptOutKey == "" {
		cfg.Files.OptOutKey = DefaultOptOutKey
	}
	return nil
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

type serverDefaults struct{}

func (serverDefaults) Domain() string { return "server" }

func (serverDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.MaxBody <= 0 {
		cfg.Server.MaxBody = DefaultMaxBody
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	return nil
}

type watchDefaults struct{}

func (watchDefaults) Domain() string { return "watch" }

// A zero sweep interval disables the periodic sweep, so only the debounce
// gets a default.
func (watchDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
	return nil
}

type branchDefaults struct{}

func (branchDefaults) Domain() string { return "branch" }

func (branchDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Branch.Prefix == "" {
		cfg.Branch.Prefix = branchname.DefaultBranchPrefix
	}
	if cfg.Branch.Name == "" {
		cfg.Branch.Name = branchname.DefaultBranchName
	}
	return nil
}
