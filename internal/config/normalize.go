package config

import (
	"strings"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// normalize case-folds enumerations and trims free-form values before
// defaults are applied.
func normalize(cfg *Config) error {
	level, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid logging.level").Build()
	}
	cfg.Logging.Level = level

	format, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format))
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid logging.format").Build()
	}
	cfg.Logging.Format = format

	cfg.Platform.Host = strings.ToLower(strings.TrimSpace(cfg.Platform.Host))
	cfg.Platform.RedirectHost = strings.ToLower(strings.TrimSpace(cfg.Platform.RedirectHost))
	cfg.Platform.MirrorPrefixes = trimAll(cfg.Platform.MirrorPrefixes)
	cfg.Files.Include = trimAll(cfg.Files.Include)
	cfg.Files.Exclude = trimAll(cfg.Files.Exclude)
	cfg.Files.OptOutKey = strings.TrimSpace(cfg.Files.OptOutKey)
	cfg.Server.Addr = strings.TrimSpace(cfg.Server.Addr)
	return nil
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
