package docs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/mdredirect/internal/docs/errors"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range []string{
		"README.md",
		"docs/guide.md",
		"docs/deep/notes.markdown",
		"docs/image.png",
		"docs/text.txt",
		".git/HEAD.md",
		".github/ISSUE.md",
		"node_modules/pkg/readme.md",
		"vendor/mod/readme.md",
		"archive/old.md",
	} {
		writeFile(t, filepath.Join(root, filepath.FromSlash(p)), "x\n")
	}
	return root
}

func TestDiscover_DefaultSelection(t *testing.T) {
	root := seedTree(t)

	files, err := Discover(root, nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		"README.md",
		"archive/old.md",
		"docs/deep/notes.markdown",
		"docs/guide.md",
	}, relPaths(t, root, files))
}

func TestDiscover_IncludeExclude(t *testing.T) {
	root := seedTree(t)

	sel, err := NewSelector([]string{"docs/**/*.md", "docs/**/*.markdown"}, []string{"docs/deep/**"})
	require.NoError(t, err)

	files, err := Discover(root, sel)
	require.NoError(t, err)
	require.Equal(t, []string{"docs/guide.md"}, relPaths(t, root, files))
}

func TestDiscover_ExcludeFileByName(t *testing.T) {
	root := seedTree(t)

	sel, err := NewSelector(nil, []string{"README.md", "archive/**"})
	require.NoError(t, err)

	files, err := Discover(root, sel)
	require.NoError(t, err)
	require.Equal(t, []string{"docs/deep/notes.markdown", "docs/guide.md"}, relPaths(t, root, files))
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, derrors.ErrPathNotFound)
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestSelector_Match(t *testing.T) {
	sel, err := NewSelector(nil, []string{"CHANGELOG.md"})
	require.NoError(t, err)

	require.True(t, sel.Match("README.md"))
	require.True(t, sel.Match("a/b/c.md"))
	require.True(t, sel.Match(filepath.Join("a", "b.markdown")))
	require.False(t, sel.Match("CHANGELOG.md"))
	require.False(t, sel.Match("a/b.txt"))
}

func TestNewSelector_InvalidPattern(t *testing.T) {
	_, err := NewSelector([]string{"docs/["}, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, derrors.ErrInvalidPattern)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestSkipDir(t *testing.T) {
	require.True(t, SkipDir(".git"))
	require.True(t, SkipDir("node_modules"))
	require.True(t, SkipDir("vendor"))
	require.False(t, SkipDir("."))
	require.False(t, SkipDir("docs"))
}

func TestSuperVariants(t *testing.T) {
	require.Equal(t, []string{"*.md"}, superVariants("*.md"))
	require.ElementsMatch(t, []string{"**/*.md", "*.md"}, superVariants("**/*.md"))
	require.ElementsMatch(t, []string{
		"a/**/b/**/c",
		"a/b/**/c",
		"a/**/b/c",
		"a/b/c",
	}, superVariants("a/**/b/**/c"))
}
