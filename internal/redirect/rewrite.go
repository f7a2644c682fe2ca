package redirect

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
	"git.home.luguber.info/inful/mdredirect/internal/markdown"
)

// Result describes one successful rewrite.
type Result struct {
	Content string
	// Links counts rewritten link destinations.
	Links int
	// Texts counts bare URLs turned into links.
	Texts int
}

// Total returns the number of rewritten references.
func (r Result) Total() int { return r.Links + r.Texts }

// Rewriter bundles the platform, parser and logger used for rewriting.
// A Rewriter is immutable and safe for concurrent use.
type Rewriter struct {
	platform Platform
	timeout  time.Duration
	matcher  *Matcher
	parse    markdown.Parser
	logger   *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithPlatform selects the platform whose references are rewritten.
func WithPlatform(p Platform) Option {
	return func(r *Rewriter) { r.platform = p }
}

// WithParser replaces the markdown parser.
func WithParser(p markdown.Parser) Option {
	return func(r *Rewriter) { r.parse = p }
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) { r.logger = l }
}

// WithMatchTimeout bounds each regular expression evaluation.
func WithMatchTimeout(d time.Duration) Option {
	return func(r *Rewriter) { r.timeout = d }
}

// NewRewriter returns a Rewriter for GitHub unless configured otherwise.
func NewRewriter(opts ...Option) (*Rewriter, error) {
	r := &Rewriter{
		platform: GitHub(),
		timeout:  DefaultMatchTimeout,
		parse:    markdown.NewParser(markdown.Options{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	m, err := MatcherFor(r.platform, r.timeout)
	if err != nil {
		return nil, err
	}
	r.matcher = m
	return r, nil
}

// Platform returns the configured platform.
func (r *Rewriter) Platform() Platform { return r.platform }

// Apply rewrites every platform reference in content. On failure it returns a
// classified error and no partial result.
func (r *Rewriter) Apply(content string) (res Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{}
			err = errors.InternalError("rewrite panicked").
				WithContext("panic", fmt.Sprint(rec)).
				Build()
		}
	}()

	doc, err := r.parse(content)
	if err != nil {
		if _, ok := errors.AsClassified(err); ok {
			return Result{}, err
		}
		return Result{}, errors.WrapError(err, errors.CategoryParse, "parse markdown").Build()
	}
	if doc == nil {
		return Result{}, errors.NewError(errors.CategoryParse, "parser returned no document").Build()
	}

	found, err := collect(r.matcher, doc, content)
	if err != nil {
		return Result{}, err
	}
	if len(found.edits) == 0 {
		return Result{Content: content}, nil
	}

	trailing := content[len(strings.TrimRightFunc(content, isTrailingSpace)):]
	spliced, err := markdown.ApplyEdits(content, found.edits)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Content: strings.TrimRightFunc(spliced, isTrailingSpace) + trailing,
		Links:   found.links,
		Texts:   found.texts,
	}, nil
}

// Rewrite returns content with every platform reference rewritten, or a
// classified error.
func (r *Rewriter) Rewrite(content string) (string, error) {
	res, err := r.Apply(content)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

// Massage never fails: on error it logs a warning and returns content unchanged.
func (r *Rewriter) Massage(content string) string {
	out, err := r.Rewrite(content)
	if err != nil {
		r.logger.Warn("Unable to massage markdown text",
			logfields.Category(string(errors.GetCategory(err))),
			logfields.Error(err))
		return content
	}
	return out
}

func isTrailingSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

var defaultRewriter = sync.OnceValues(func() (*Rewriter, error) {
	return NewRewriter()
})

// Rewrite rewrites content with the default GitHub rewriter.
func Rewrite(content string) (string, error) {
	r, err := defaultRewriter()
	if err != nil {
		return "", err
	}
	return r.Rewrite(content)
}

// Massage rewrites content with the default GitHub rewriter and falls back to
// the original text on any failure.
func Massage(content string) string {
	r, err := defaultRewriter()
	if err != nil {
		slog.Warn("Unable to massage markdown text", logfields.Error(err))
		return content
	}
	return r.Massage(content)
}
