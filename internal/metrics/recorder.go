package metrics

import "time"

// DocumentResult enumerates per-document outcomes for counters.
type DocumentResult string

const (
	DocumentChanged   DocumentResult = "changed"
	DocumentUnchanged DocumentResult = "unchanged"
	DocumentSkipped   DocumentResult = "skipped"
	DocumentFallback  DocumentResult = "fallback"
	DocumentError     DocumentResult = "error"
)

// RewriteKind distinguishes rewritten link destinations from bare URLs.
type RewriteKind string

const (
	RewriteLink RewriteKind = "link"
	RewriteText RewriteKind = "text"
)

// Recorder defines observability hooks for rewrite metrics. Implementations
// may forward to Prometheus or anything else.
type Recorder interface {
	IncDocuments(result DocumentResult)
	AddRewrites(kind RewriteKind, n int)
	IncFallback(category string)
	ObserveRewriteDuration(d time.Duration)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncDocuments(DocumentResult)                   {}
func (NoopRecorder) AddRewrites(RewriteKind, int)                  {}
func (NoopRecorder) IncFallback(string)                            {}
func (NoopRecorder) ObserveRewriteDuration(time.Duration)          {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}
