package docs

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/mdredirect/internal/docs/errors"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/markdown"
	"git.home.luguber.info/inful/mdredirect/internal/metrics"
	"git.home.luguber.info/inful/mdredirect/internal/redirect"
)

type recordingRecorder struct {
	mu        sync.Mutex
	documents map[metrics.DocumentResult]int
	rewrites  map[metrics.RewriteKind]int
	fallbacks map[string]int
	durations int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{
		documents: map[metrics.DocumentResult]int{},
		rewrites:  map[metrics.RewriteKind]int{},
		fallbacks: map[string]int{},
	}
}

func (r *recordingRecorder) IncDocuments(res metrics.DocumentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[res]++
}

func (r *recordingRecorder) AddRewrites(kind metrics.RewriteKind, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewrites[kind] += n
}

func (r *recordingRecorder) IncFallback(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[category]++
}

func (r *recordingRecorder) ObserveRewriteDuration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func (r *recordingRecorder) ObserveHTTPRequest(string, int, time.Duration) {}

func newProcessor(t *testing.T, opts ...ProcessorOption) *Processor {
	t.Helper()
	rw, err := redirect.NewRewriter(redirect.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	opts = append([]ProcessorOption{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	p, err := NewProcessor(rw, opts...)
	require.NoError(t, err)
	return p
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewProcessor_RequiresRewriter(t *testing.T) {
	_, err := NewProcessor(nil)
	require.Error(t, err)
}

func TestProcessContent_FrontmatterPreserved(t *testing.T) {
	rec := newRecordingRecorder()
	p := newProcessor(t, WithRecorder(rec))

	in := "---\nsource: https://github.com/o/r/issues/1\n---\nSee https://github.com/o/r/issues/2\n"
	res := p.ProcessContent("a.md", in)

	require.NoError(t, res.Fallback)
	require.True(t, res.Changed)
	require.Equal(t, "---\nsource: https://github.com/o/r/issues/1\n---\nSee [https://github.com/o/r/issues/2](https://redirect.github.com/o/r/issues/2)\n", res.Content)
	require.Equal(t, 1, res.Texts)
	require.Equal(t, 1, res.Matches())
	require.Equal(t, 1, rec.documents[metrics.DocumentChanged])
	require.Equal(t, 1, rec.rewrites[metrics.RewriteText])
	require.Equal(t, 1, rec.durations)
}

func TestProcessContent_FrontmatterDisabled(t *testing.T) {
	p := newProcessor(t, WithFrontmatter(false))

	in := "---\nredirect_links: false\n---\n[x](https://github.com/o/r/pull/3)\n"
	res := p.ProcessContent("a.md", in)

	require.False(t, res.Skipped)
	require.True(t, res.Changed)
	require.Contains(t, res.Content, "(https://redirect.github.com/o/r/pull/3)")
}

func TestProcessContent_OptOut(t *testing.T) {
	rec := newRecordingRecorder()
	p := newProcessor(t, WithRecorder(rec))

	in := "---\nredirect_links: false\n---\n[x](https://github.com/o/r/pull/3)\n"
	res := p.ProcessContent("a.md", in)

	require.True(t, res.Skipped)
	require.False(t, res.Changed)
	require.Equal(t, in, res.Content)
	require.Equal(t, 1, rec.documents[metrics.DocumentSkipped])
	require.Zero(t, rec.durations)

	optedIn := p.ProcessContent("b.md", "---\nredirect_links: true\n---\n[x](https://github.com/o/r/pull/3)\n")
	require.True(t, optedIn.Changed)
}

func TestProcessContent_CustomOptOutKey(t *testing.T) {
	p := newProcessor(t, WithOptOutKey("links"))

	res := p.ProcessContent("a.md", "---\nlinks: false\n---\n[x](https://github.com/o/r/pull/3)\n")
	require.True(t, res.Skipped)

	res = p.ProcessContent("a.md", "---\nredirect_links: false\n---\n[x](https://github.com/o/r/pull/3)\n")
	require.False(t, res.Skipped)
	require.True(t, res.Changed)
}

func TestProcessContent_UnclosedFrontmatterIsBody(t *testing.T) {
	p := newProcessor(t)

	in := "---\ntitle: x\n\n[x](https://github.com/o/r/pull/3)\n"
	res := p.ProcessContent("a.md", in)

	require.True(t, res.Changed)
	require.Contains(t, res.Content, "(https://redirect.github.com/o/r/pull/3)")
	require.True(t, len(res.Content) > 4 && res.Content[:4] == "---\n")
}

func TestProcessContent_FallbackLeavesContent(t *testing.T) {
	rec := newRecordingRecorder()
	failing := func(string) (*markdown.Node, error) { return nil, stderrors.New("boom") }
	rw, err := redirect.NewRewriter(redirect.WithParser(failing))
	require.NoError(t, err)
	p, err := NewProcessor(rw, WithRecorder(rec), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	in := "See https://github.com/o/r/issues/2\n"
	res := p.ProcessContent("a.md", in)

	require.Error(t, res.Fallback)
	require.True(t, errors.HasCategory(res.Fallback, errors.CategoryParse))
	require.False(t, res.Changed)
	require.Equal(t, in, res.Content)
	require.Equal(t, 1, rec.documents[metrics.DocumentFallback])
	require.Equal(t, 1, rec.fallbacks["parse"])
}

func TestProcessFile_MissingFile(t *testing.T) {
	p := newProcessor(t)
	_, err := p.ProcessFile(filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	require.ErrorIs(t, err, derrors.ErrFileReadFailed)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestRun_WritesChangesAndPreservesMode(t *testing.T) {
	root := t.TempDir()
	changed := filepath.Join(root, "docs", "a.md")
	untouched := filepath.Join(root, "docs", "b.md")
	writeFile(t, changed, "[x](https://github.com/o/r/issues/1)\n")
	writeFile(t, untouched, "nothing to see\n")
	require.NoError(t, os.Chmod(changed, 0o600))

	p := newProcessor(t)
	res, err := p.Run(context.Background(), []string{root}, ModeWrite)
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	require.NoError(t, err)
	require.Equal(t, 2, res.Scanned)
	require.Equal(t, 1, res.Changed)
	require.Equal(t, 1, res.Links)
	require.Equal(t, 1, res.Matches())

	data, err := os.ReadFile(changed)
	require.NoError(t, err)
	require.Equal(t, "[x](https://redirect.github.com/o/r/issues/1)\n", string(data))

	info, err := os.Stat(changed)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRun_DryRunDoesNotWrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.md")
	in := "[x](https://github.com/o/r/issues/1)\n"
	writeFile(t, path, in)

	p := newProcessor(t)
	res, err := p.Run(context.Background(), []string{path}, ModeDryRun)
	require.NoError(t, err)
	require.Equal(t, 1, res.Changed)
	require.Len(t, res.Files, 1)
	require.Equal(t, in, res.Files[0].Original)
	require.NotEqual(t, in, res.Files[0].Content)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, in, string(data))
}

func TestRun_ExplicitFilesBypassSelector(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, "[x](https://github.com/o/r/issues/1)\n")

	p := newProcessor(t)
	res, err := p.Run(context.Background(), []string{path, path}, ModeDryRun)
	require.NoError(t, err)
	require.Equal(t, 1, res.Scanned)
	require.Equal(t, 1, res.Changed)
}

func TestRun_MissingPath(t *testing.T) {
	p := newProcessor(t)
	_, err := p.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, ModeDryRun)
	require.Error(t, err)
	require.ErrorIs(t, err, derrors.ErrPathNotFound)
}

func TestRun_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newProcessor(t)
	res, err := p.Run(ctx, []string{root}, ModeWrite)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.Scanned)
}

func TestMode_String(t *testing.T) {
	require.Equal(t, "write", ModeWrite.String())
	require.Equal(t, "dry-run", ModeDryRun.String())
}
