package config

import (
	"time"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/mdredirect/internal/foundation"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ConfigError("configuration is nil").Build()
	}
	if err := cfg.Platform.Redirect().Validate(); err != nil {
		return err
	}
	for _, section := range []struct {
		name     string
		patterns []string
	}{
		{"files.include", cfg.Files.Include},
		{"files.exclude", cfg.Files.Exclude},
	} {
		for _, p := range section.patterns {
			if _, err := glob.Compile(p, '/'); err != nil {
				return errors.WrapError(err, errors.CategoryConfig, "invalid glob pattern").
					WithContext("field", section.name).
					WithContext("pattern", p).
					Build()
			}
		}
	}
	return limits.Validate(cfg).ToError(errors.CategoryConfig)
}

var limits = foundation.NewValidatorChain(
	foundation.NonNegative("server.max_body", func(c *Config) int64 { return c.Server.MaxBody }),
	foundation.NonNegative("watch.debounce", func(c *Config) time.Duration { return c.Watch.Debounce }),
	foundation.NonNegative("watch.sweep_interval", func(c *Config) time.Duration { return c.Watch.SweepInterval }),
	foundation.NonNegative("branch.hashed_length", func(c *Config) int { return c.Branch.HashedLength }),
	foundation.OneOf("logging.format", func(c *Config) LogFormat { return c.Logging.Format }, LogFormatText, LogFormatJSON),
)
