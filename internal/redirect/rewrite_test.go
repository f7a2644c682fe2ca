package redirect

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/markdown"
)

func TestRewrite_Cases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "explicit link",
			in:   "See [bug](https://github.com/org/repo/issues/42)",
			want: "See [bug](https://redirect.github.com/org/repo/issues/42)",
		},
		{
			name: "bare url",
			in:   "Check https://github.com/org/repo/pull/7 now",
			want: "Check [https://github.com/org/repo/pull/7](https://redirect.github.com/org/repo/pull/7) now",
		},
		{
			name: "label duplicates destination",
			in:   "[https://github.com/o/r/issues/1](https://github.com/o/r/issues/1)",
			want: "[https://github.com/o/r/issues/1](https://redirect.github.com/o/r/issues/1)",
		},
		{
			name: "api host is not a reference",
			in:   "See https://api.github.com/o/r/issues/1 and [x](https://api.github.com/o/r/pull/2)",
			want: "See https://api.github.com/o/r/issues/1 and [x](https://api.github.com/o/r/pull/2)",
		},
		{
			name: "mirror prefix",
			in:   "[x](https://togithub.com/o/r/issues/1)",
			want: "[x](https://redirect.github.com/o/r/issues/1)",
		},
		{
			name: "www and discussions",
			in:   "[x](https://www.github.com/o/r/discussions/5)",
			want: "[x](https://redirect.github.com/o/r/discussions/5)",
		},
		{
			name: "fragment kept and punctuation left alone",
			in:   "see https://github.com/o/r/issues/1#issuecomment-123.",
			want: "see [https://github.com/o/r/issues/1#issuecomment-123](https://redirect.github.com/o/r/issues/1#issuecomment-123).",
		},
		{
			name: "case insensitive",
			in:   "[x](HTTPS://GitHub.com/Org/Repo/Issues/1)",
			want: "[x](HTTPS://redirect.github.com/Org/Repo/Issues/1)",
		},
		{
			name: "scheme-less",
			in:   "fixed in github.com/o/r/pull/3",
			want: "fixed in [github.com/o/r/pull/3](redirect.github.com/o/r/pull/3)",
		},
		{
			name: "autolink",
			in:   "<https://github.com/o/r/issues/1>",
			want: "<https://redirect.github.com/o/r/issues/1>",
		},
		{
			name: "underscore in repo name",
			in:   "see https://github.com/org/my_repo/issues/1 here",
			want: "see [https://github.com/org/my_repo/issues/1](https://redirect.github.com/org/my_repo/issues/1) here",
		},
		{
			name: "inside emphasis",
			in:   "*https://github.com/o/r/issues/1*",
			want: "*[https://github.com/o/r/issues/1](https://redirect.github.com/o/r/issues/1)*",
		},
		{
			name: "multibyte text before matches",
			in:   "Über https://github.com/o/r/issues/1 und ✓ https://github.com/o/r/pull/2",
			want: "Über [https://github.com/o/r/issues/1](https://redirect.github.com/o/r/issues/1) und ✓ [https://github.com/o/r/pull/2](https://redirect.github.com/o/r/pull/2)",
		},
		{
			name: "code is left alone",
			in:   "Use `https://github.com/o/r/issues/1`\n\n```\nhttps://github.com/o/r/issues/2\n```\n",
			want: "Use `https://github.com/o/r/issues/1`\n\n```\nhttps://github.com/o/r/issues/2\n```\n",
		},
		{
			name: "images are left alone",
			in:   "![shot](https://github.com/o/r/issues/1)",
			want: "![shot](https://github.com/o/r/issues/1)",
		},
		{
			name: "reference definitions are left alone",
			in:   "See [bug][1].\n\n[1]: https://github.com/o/r/issues/1\n",
			want: "See [bug][1].\n\n[1]: https://github.com/o/r/issues/1\n",
		},
		{
			name: "redirect url in prose is left alone",
			in:   "already https://redirect.github.com/o/r/issues/1",
			want: "already https://redirect.github.com/o/r/issues/1",
		},
		{
			name: "other links untouched",
			in:   "[docs](https://example.com/o/r/issues/1) and [repo](https://github.com/o/r)",
			want: "[docs](https://example.com/o/r/issues/1) and [repo](https://github.com/o/r)",
		},
		{
			name: "mixed document",
			in: "# Changes\n\n- Fixes [#1](https://github.com/o/r/issues/1)\n" +
				"- See https://github.com/o/r/pull/2 and https://github.com/o/r/pull/3\n\n" +
				"> quoted <https://github.com/o/r/discussions/4>\n",
			want: "# Changes\n\n- Fixes [#1](https://redirect.github.com/o/r/issues/1)\n" +
				"- See [https://github.com/o/r/pull/2](https://redirect.github.com/o/r/pull/2) and " +
				"[https://github.com/o/r/pull/3](https://redirect.github.com/o/r/pull/3)\n\n" +
				"> quoted <https://redirect.github.com/o/r/discussions/4>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rewrite(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.want, Massage(tt.in))
		})
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	inputs := []string{
		"See [bug](https://github.com/org/repo/issues/42)",
		"Check https://github.com/org/repo/pull/7 now",
		"[https://github.com/o/r/issues/1](https://github.com/o/r/issues/1)",
		"<https://togithub.com/o/r/issues/1>\n\ntext github.com/o/r/issues/9\n",
	}
	for _, in := range inputs {
		once, err := Rewrite(in)
		require.NoError(t, err)
		twice, err := Rewrite(once)
		require.NoError(t, err)
		require.Equal(t, once, twice, "input %q", in)
	}
}

// A title repeating the destination holds the last occurrence of the URL, so
// the title is rewritten first and the destination on the next pass.
func TestRewrite_TitleRepeatingDestination(t *testing.T) {
	in := `[a](https://github.com/o/r/issues/1 "https://github.com/o/r/issues/1")`

	once, err := Rewrite(in)
	require.NoError(t, err)
	require.Equal(t, `[a](https://github.com/o/r/issues/1 "https://redirect.github.com/o/r/issues/1")`, once)

	twice, err := Rewrite(once)
	require.NoError(t, err)
	require.Equal(t, `[a](https://redirect.github.com/o/r/issues/1 "https://redirect.github.com/o/r/issues/1")`, twice)

	thrice, err := Rewrite(twice)
	require.NoError(t, err)
	require.Equal(t, twice, thrice)
}

func TestRewrite_TrailingWhitespacePreserved(t *testing.T) {
	for _, suffix := range []string{"", "\n", "\n\n", "  \t\n", "\r\n", "\n \n", "\n\uFEFF"} {
		in := "See https://github.com/o/r/issues/1" + suffix
		got, err := Rewrite(in)
		require.NoError(t, err)
		require.Equal(t, "See [https://github.com/o/r/issues/1](https://redirect.github.com/o/r/issues/1)"+suffix, got)
	}
}

func TestRewrite_NoMatchesReturnsInput(t *testing.T) {
	in := "# Title\n\nNothing to see [here](https://example.com).  \n\n"
	got, err := Rewrite(in)
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestRewriter_ApplyCountsKinds(t *testing.T) {
	r, err := NewRewriter()
	require.NoError(t, err)

	res, err := r.Apply("[a](https://github.com/o/r/issues/1) https://github.com/o/r/pull/2 https://github.com/o/r/pull/3")
	require.NoError(t, err)
	require.Equal(t, 1, res.Links)
	require.Equal(t, 2, res.Texts)
	require.Equal(t, 3, res.Total())
}

func TestRewriter_GFMTables(t *testing.T) {
	r, err := NewRewriter(WithParser(markdown.NewParser(markdown.Options{GFM: true})))
	require.NoError(t, err)

	in := "| issue | note |\n| --- | --- |\n| https://github.com/o/r/issues/1 | ~~old~~ |\n"
	got, err := r.Rewrite(in)
	require.NoError(t, err)
	require.Equal(t, "| issue | note |\n| --- | --- |\n| [https://github.com/o/r/issues/1](https://redirect.github.com/o/r/issues/1) | ~~old~~ |\n", got)
}

func TestRewriter_CustomPlatform(t *testing.T) {
	r, err := NewRewriter(WithPlatform(Platform{
		Host:         "gitea.example.com",
		RedirectHost: "redirect.gitea.example.com",
	}))
	require.NoError(t, err)

	got, err := r.Rewrite("[x](https://gitea.example.com/o/r/pull/1) and https://github.com/o/r/pull/2")
	require.NoError(t, err)
	require.Equal(t, "[x](https://redirect.gitea.example.com/o/r/pull/1) and https://github.com/o/r/pull/2", got)
}

func TestNewRewriter_InvalidPlatform(t *testing.T) {
	_, err := NewRewriter(WithPlatform(Platform{Host: "github.com"}))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRewriter_ParserFailureFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	failing := func(string) (*markdown.Node, error) { return nil, stderrors.New("boom") }

	r, err := NewRewriter(WithParser(failing), WithLogger(logger))
	require.NoError(t, err)

	in := "Check https://github.com/o/r/pull/7 now\n"
	_, err = r.Rewrite(in)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryParse))

	require.Equal(t, in, r.Massage(in))
	require.Contains(t, buf.String(), "Unable to massage markdown text")
	require.Contains(t, buf.String(), "category=parse")
}

func TestRewriter_ParserPanicFallsBack(t *testing.T) {
	panicking := func(string) (*markdown.Node, error) { panic("unexpected node") }

	r, err := NewRewriter(WithParser(panicking), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	_, err = r.Rewrite("x")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryInternal))
	require.Equal(t, "x", r.Massage("x"))
}

func TestRewriter_OffsetAnomaliesFallBack(t *testing.T) {
	const in = "[a](https://github.com/o/r/issues/1) https://github.com/o/r/issues/2"

	tests := []struct {
		name string
		doc  *markdown.Node
	}{
		{
			name: "destination missing from link source",
			doc: &markdown.Node{Kind: markdown.KindContainer, End: len(in), Children: []*markdown.Node{
				{Kind: markdown.KindLink, Start: 0, End: 3, Destination: "https://github.com/o/r/issues/1"},
			}},
		},
		{
			name: "link outside document",
			doc: &markdown.Node{Kind: markdown.KindContainer, End: len(in), Children: []*markdown.Node{
				{Kind: markdown.KindLink, Start: 0, End: len(in) + 10, Destination: "https://github.com/o/r/issues/1"},
			}},
		},
		{
			name: "overlapping text nodes",
			doc: &markdown.Node{Kind: markdown.KindContainer, End: len(in), Children: []*markdown.Node{
				{Kind: markdown.KindText, Start: 37, End: len(in), Value: in[37:]},
				{Kind: markdown.KindText, Start: 37, End: len(in), Value: in[37:]},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.doc
			r, err := NewRewriter(
				WithParser(func(string) (*markdown.Node, error) { return doc, nil }),
				WithLogger(slog.New(slog.DiscardHandler)),
			)
			require.NoError(t, err)

			_, err = r.Rewrite(in)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryOffset))
			require.Equal(t, in, r.Massage(in))
		})
	}
}

func TestRewriter_NonMatchingLinkIsNeverLocated(t *testing.T) {
	const in = `[a](foo\_bar) https://github.com/o/r/issues/2`
	got, err := Rewrite(in)
	require.NoError(t, err)
	require.Equal(t, `[a](foo\_bar) [https://github.com/o/r/issues/2](https://redirect.github.com/o/r/issues/2)`, got)
}

func TestRewrite_ConcurrentUse(t *testing.T) {
	in := strings.Repeat("See https://github.com/o/r/issues/1 and [x](https://github.com/o/r/pull/2).\n", 20)
	want, err := Rewrite(in)
	require.NoError(t, err)

	results := make([]string, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Massage(in)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, want, got)
	}
}
