package docs

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	derrors "git.home.luguber.info/inful/mdredirect/internal/docs/errors"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/frontmatter"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
	"git.home.luguber.info/inful/mdredirect/internal/metrics"
	"git.home.luguber.info/inful/mdredirect/internal/redirect"
)

// DefaultOptOutKey is the frontmatter field that disables rewriting when false.
const DefaultOptOutKey = "redirect_links"

// FileResult describes the outcome for one document.
type FileResult struct {
	Path string
	// Original is the content as read; Content is what would be written.
	Original string
	Content  string
	Changed  bool
	// Skipped is set when the frontmatter opted the document out.
	Skipped bool
	Links   int
	Texts   int
	// Fallback holds the classified error when the document was left unchanged
	// because rewriting failed.
	Fallback error
}

// Matches returns the number of rewritten references.
func (r FileResult) Matches() int { return r.Links + r.Texts }

func (r FileResult) outcome() metrics.DocumentResult {
	switch {
	case r.Skipped:
		return metrics.DocumentSkipped
	case r.Fallback != nil:
		return metrics.DocumentFallback
	case r.Changed:
		return metrics.DocumentChanged
	default:
		return metrics.DocumentUnchanged
	}
}

// Processor rewrites documents with a redirect.Rewriter, keeping frontmatter intact.
type Processor struct {
	rewriter    *redirect.Rewriter
	recorder    metrics.Recorder
	logger      *slog.Logger
	selector    *Selector
	frontmatter bool
	optOutKey   string
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) ProcessorOption {
	return func(p *Processor) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSelector sets the file selection used when walking directories.
func WithSelector(s *Selector) ProcessorOption {
	return func(p *Processor) {
		if s != nil {
			p.selector = s
		}
	}
}

// WithFrontmatter controls whether YAML frontmatter is split off before
// rewriting. Enabled by default.
func WithFrontmatter(enabled bool) ProcessorOption {
	return func(p *Processor) { p.frontmatter = enabled }
}

// WithOptOutKey names the frontmatter field that opts a document out. An empty
// key disables opting out.
func WithOptOutKey(key string) ProcessorOption {
	return func(p *Processor) { p.optOutKey = key }
}

// NewProcessor returns a Processor using rewriter.
func NewProcessor(rewriter *redirect.Rewriter, opts ...ProcessorOption) (*Processor, error) {
	if rewriter == nil {
		return nil, errors.InternalError("processor requires a rewriter").Build()
	}
	p := &Processor{
		rewriter:    rewriter,
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
		frontmatter: true,
		optOutKey:   DefaultOptOutKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.selector == nil {
		s, err := NewSelector(nil, nil)
		if err != nil {
			return nil, err
		}
		p.selector = s
	}
	return p, nil
}

// Selector returns the file selection used for directories.
func (p *Processor) Selector() *Selector { return p.selector }

// ProcessContent rewrites one document held in memory. It never fails: a
// rewrite error is reported in FileResult.Fallback with the content unchanged.
func (p *Processor) ProcessContent(path, content string) FileResult {
	res := FileResult{Path: path, Original: content, Content: content}

	doc := frontmatter.Document{Body: content}
	if p.frontmatter {
		var err error
		doc, err = frontmatter.Split(content)
		if stderrors.Is(err, frontmatter.ErrMissingClosingDelimiter) {
			p.logger.Debug("Frontmatter not closed, rewriting whole document", logfields.Path(path))
		}
		if p.optedOut(path, doc) {
			res.Skipped = true
			p.record(res, 0)
			return res
		}
	}

	start := time.Now()
	out, err := p.rewriter.Apply(doc.Body)
	elapsed := time.Since(start)
	if err != nil {
		res.Fallback = err
		p.logger.Warn("Unable to massage markdown text",
			logfields.Path(path),
			logfields.Category(string(errors.GetCategory(err))),
			logfields.Error(err))
		p.record(res, elapsed)
		return res
	}

	res.Content = doc.WithBody(out.Content).String()
	res.Changed = res.Content != content
	res.Links = out.Links
	res.Texts = out.Texts
	p.record(res, elapsed)
	return res
}

func (p *Processor) optedOut(path string, doc frontmatter.Document) bool {
	if p.optOutKey == "" || !doc.HasFrontmatter() {
		return false
	}
	enabled, ok, err := doc.Bool(p.optOutKey)
	if err != nil {
		p.logger.Warn("Failed to parse frontmatter", logfields.Path(path), logfields.Error(err))
		return false
	}
	if ok && !enabled {
		p.logger.Debug("Document opted out of link rewriting", logfields.Path(path), slog.String("key", p.optOutKey))
		return true
	}
	return false
}

func (p *Processor) record(res FileResult, elapsed time.Duration) {
	p.recorder.IncDocuments(res.outcome())
	if res.Skipped {
		return
	}
	p.recorder.ObserveRewriteDuration(elapsed)
	if res.Fallback != nil {
		p.recorder.IncFallback(string(errors.GetCategory(res.Fallback)))
		return
	}
	if res.Links > 0 {
		p.recorder.AddRewrites(metrics.RewriteLink, res.Links)
	}
	if res.Texts > 0 {
		p.recorder.AddRewrites(metrics.RewriteText, res.Texts)
	}
}

// ProcessFile reads and rewrites one document without writing it back.
func (p *Processor) ProcessFile(path string) (FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		p.recorder.IncDocuments(metrics.DocumentError)
		return FileResult{Path: path}, errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrFileReadFailed, err), errors.CategoryFileSystem, "read document").
			WithContext("path", path).
			Build()
	}
	return p.ProcessContent(path, string(data)), nil
}

// WriteResult writes a changed document back in place, keeping its file mode.
func WriteResult(res FileResult) error {
	if !res.Changed {
		return nil
	}
	info, err := os.Stat(res.Path)
	if err != nil {
		return errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrFileWriteFailed, err), errors.CategoryFileSystem, "stat document").
			WithContext("path", res.Path).
			Build()
	}
	if err := os.WriteFile(res.Path, []byte(res.Content), info.Mode().Perm()); err != nil {
		return errors.WrapError(fmt.Errorf("%w: %w", derrors.ErrFileWriteFailed, err), errors.CategoryFileSystem, "write document").
			WithContext("path", res.Path).
			Build()
	}
	return nil
}
