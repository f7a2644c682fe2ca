package redirect

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

// DefaultMatchTimeout bounds a single regular expression evaluation.
const DefaultMatchTimeout = time.Second

// Span is a byte range [Start, End) inside scanned text.
type Span struct {
	Start int
	End   int
}

// Matcher recognizes issue, pull request and discussion URLs of a platform
// and rewrites their host token. It is safe for concurrent use.
type Matcher struct {
	platform  Platform
	reference *regexp2.Regexp
	hostToken *regexp2.Regexp
}

// NewMatcher compiles the expressions for p.
func NewMatcher(p Platform, timeout time.Duration) (*Matcher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}

	reference, err := regexp2.Compile(referencePattern(p), regexp2.IgnoreCase)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "compile reference pattern").
			WithContext("host", p.Host).
			Build()
	}
	reference.MatchTimeout = timeout

	hostToken, err := regexp2.Compile(hostTokenPattern(p), regexp2.IgnoreCase)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "compile host pattern").
			WithContext("host", p.Host).
			Build()
	}
	hostToken.MatchTimeout = timeout

	return &Matcher{platform: p, reference: reference, hostToken: hostToken}, nil
}

// referencePattern builds the reference expression. The root domain must not
// directly follow "api." (API host) or the redirect label (already canonical).
func referencePattern(p Platform) string {
	var b strings.Builder
	b.WriteString(`(?:https?:)?(?://)?(?:www\.)?(?<!api\.)`)
	if label := p.redirectLabel(); label != "" {
		b.WriteString(`(?<!` + regexp2.Escape(label) + `)`)
	}
	if len(p.MirrorPrefixes) > 0 {
		b.WriteString(`(?:` + alternation(p.MirrorPrefixes) + `)?`)
	}
	b.WriteString(regexp2.Escape(p.Host))
	b.WriteString(`/[-a-z0-9]+/[-_a-z0-9.]+/(?:discussions|issues|pull)/[0-9]+(?:#[-_a-z0-9]+)?`)
	return b.String()
}

func hostTokenPattern(p Platform) string {
	tokens := append([]string(nil), p.MirrorPrefixes...)
	if label := p.redirectLabel(); label != "" {
		tokens = append(tokens, label)
	}
	tokens = append(tokens, "www.")
	return `(?:` + alternation(tokens) + `)?` + regexp2.Escape(p.Host)
}

func alternation(tokens []string) string {
	escaped := make([]string, 0, len(tokens))
	for _, t := range tokens {
		escaped = append(escaped, regexp2.Escape(t))
	}
	return strings.Join(escaped, "|")
}

// Platform returns the platform the matcher was built for.
func (m *Matcher) Platform() Platform { return m.platform }

// MatchString reports whether url contains a reference anywhere.
func (m *Matcher) MatchString(url string) (bool, error) {
	ok, err := m.reference.MatchString(url)
	if err != nil {
		return false, matchFailure(err, url)
	}
	return ok, nil
}

// FindAll returns every non-overlapping reference in text as byte spans in
// increasing order.
func (m *Matcher) FindAll(text string) ([]Span, error) {
	match, err := m.reference.FindStringMatch(text)
	if err != nil {
		return nil, matchFailure(err, text)
	}
	if match == nil {
		return nil, nil
	}

	offsets := runeOffsets(text)
	var spans []Span
	for match != nil {
		spans = append(spans, Span{
			Start: offsets.byteIndex(match.Index),
			End:   offsets.byteIndex(match.Index + match.Length),
		})
		match, err = m.reference.FindNextMatch(match)
		if err != nil {
			return nil, matchFailure(err, text)
		}
	}
	return spans, nil
}

// Canonicalize replaces the first host token of url with the redirect host.
// Scheme, path, query and fragment are left as they are. Canonical input is
// returned unchanged.
func (m *Matcher) Canonicalize(url string) (string, error) {
	out, err := m.hostToken.ReplaceFunc(url, func(regexp2.Match) string {
		return m.platform.RedirectHost
	}, -1, 1)
	if err != nil {
		return "", matchFailure(err, url)
	}
	return out, nil
}

func matchFailure(err error, input string) error {
	return errors.WrapError(err, errors.CategoryMatch, "reference matching failed").
		WithContext("input_length", len(input)).
		Build()
}

// runeByteOffsets maps rune indices reported by regexp2 to byte offsets.
// A nil value means the text is ASCII and both indices coincide.
type runeByteOffsets []int

func runeOffsets(text string) runeByteOffsets {
	if utf8.RuneCountInString(text) == len(text) {
		return nil
	}
	offsets := make(runeByteOffsets, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

func (o runeByteOffsets) byteIndex(runeIndex int) int {
	if o == nil {
		return runeIndex
	}
	return o[runeIndex]
}

const matcherCacheSize = 64

var matcherCache *lru.Cache[string, any]

func init() {
	matcherCache, _ = lru.New[string, any](matcherCacheSize)
}

// MatcherFor returns a compiled matcher for p, reusing earlier compilations.
// Compilation errors are cached as well.
func MatcherFor(p Platform, timeout time.Duration) (*Matcher, error) {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	key := p.cacheKey() + "|" + timeout.String()
	if v, ok := matcherCache.Get(key); ok {
		if m, ok := v.(*Matcher); ok {
			return m, nil
		}
		return nil, v.(error)
	}

	m, err := NewMatcher(p, timeout)
	if err != nil {
		matcherCache.Add(key, err)
		return nil, err
	}
	matcherCache.Add(key, m)
	return m, nil
}
