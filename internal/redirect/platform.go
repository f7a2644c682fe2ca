package redirect

import (
	"strings"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// Platform describes the hosting platform whose references are rewritten.
type Platform struct {
	// Host is the root domain, for example "github.com".
	Host string `yaml:"host"`
	// RedirectHost is the canonical redirect host, for example "redirect.github.com".
	RedirectHost string `yaml:"redirect_host"`
	// MirrorPrefixes are tokens glued in front of Host by mirror domains ("to" for togithub.com).
	MirrorPrefixes []string `yaml:"mirror_prefixes"`
}

// GitHub is the default platform.
func GitHub() Platform {
	return Platform{
		Host:           "github.com",
		RedirectHost:   "redirect.github.com",
		MirrorPrefixes: []string{"to"},
	}
}

// Validate checks that the platform can be turned into a matcher.
func (p Platform) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return errors.ConfigError("platform host is required").Build()
	}
	if strings.TrimSpace(p.RedirectHost) == "" {
		return errors.ConfigError("platform redirect host is required").
			WithContext("host", p.Host).
			Build()
	}
	if strings.EqualFold(p.Host, p.RedirectHost) {
		return errors.ConfigError("redirect host must differ from host").
			WithContext("host", p.Host).
			Build()
	}
	for _, h := range []string{p.Host, p.RedirectHost} {
		if strings.ContainsAny(h, "/:@ $") {
			return errors.ConfigError("platform host must be a bare host name").
				WithContext("host", h).
				Build()
		}
	}
	for _, prefix := range p.MirrorPrefixes {
		if prefix == "" || strings.ContainsAny(prefix, "/:@ $") {
			return errors.ConfigError("invalid mirror prefix").
				WithContext("prefix", prefix).
				Build()
		}
	}
	return nil
}

// redirectLabel returns the label the redirect host puts in front of Host
// ("redirect." for redirect.github.com), or "" when the hosts are unrelated.
func (p Platform) redirectLabel() string {
	host := strings.ToLower(p.Host)
	redirect := strings.ToLower(p.RedirectHost)
	if strings.HasSuffix(redirect, "."+host) {
		return strings.TrimSuffix(redirect, host)
	}
	return ""
}

func (p Platform) cacheKey() string {
	return strings.ToLower(p.Host) + "|" + strings.ToLower(p.RedirectHost) + "|" +
		strings.ToLower(strings.Join(p.MirrorPrefixes, ","))
}
