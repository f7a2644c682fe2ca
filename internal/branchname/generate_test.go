package branchname

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

func TestGenerate_Templates(t *testing.T) {
	tests := []struct {
		name   string
		update Update
		want   string
	}{
		{
			name:   "default topic",
			update: Update{DepName: "foo", NewMajor: 2},
			want:   "renovate/foo-2.x",
		},
		{
			name:   "sanitized scoped dependency",
			update: Update{DepName: "@types/node", NewMajor: 18},
			want:   "renovate/types-node-18.x",
		},
		{
			name:   "separate minor patch",
			update: Update{DepName: "foo", NewMajor: 1, NewMinor: 4, UpdateType: "patch", SeparateMinorPatch: true},
			want:   "renovate/foo-1.4.x",
		},
		{
			name:   "lockfile update",
			update: Update{DepName: "foo", NewMajor: 1, IsLockfileUpdate: true},
			want:   "renovate/foo-1.x-lockfile",
		},
		{
			name:   "additional prefix",
			update: Update{DepName: "foo", NewMajor: 1, AdditionalBranchPrefix: "{{.manager}}-", Manager: "npm"},
			want:   "renovate/npm-foo-1.x",
		},
		{
			name:   "group name",
			update: Update{DepName: "foo", GroupName: "All Non-Major Dependencies"},
			want:   "renovate/all-non-major-dependencies",
		},
		{
			name:   "group separate multiple major",
			update: Update{GroupName: "Linters", UpdateType: "major", NewMajor: 3, SeparateMajorMinor: true, SeparateMultipleMajor: true},
			want:   "renovate/major-3-linters",
		},
		{
			name:   "group separate major",
			update: Update{GroupName: "Linters", UpdateType: "major", NewMajor: 3, SeparateMajorMinor: true},
			want:   "renovate/major-linters",
		},
		{
			name:   "group separate multiple minor",
			update: Update{GroupName: "Linters", UpdateType: "minor", NewMajor: 1, NewMinor: 2, SeparateMultipleMinor: true},
			want:   "renovate/minor-1.2-linters",
		},
		{
			name:   "group separate patch",
			update: Update{GroupName: "Linters", UpdateType: "patch", SeparateMinorPatch: true},
			want:   "renovate/patch-linters",
		},
		{
			name:   "shared variable becomes group",
			update: Update{DepName: "org.jetbrains.kotlin", SharedVariableName: "kotlin_version"},
			want:   "renovate/kotlin_version",
		},
		{
			name:   "group keeps explicit topic",
			update: Update{GroupName: "Linters", BranchTopic: "custom-topic"},
			want:   "renovate/custom-topic",
		},
		{
			name:   "group slug keeps dots",
			update: Update{GroupName: "Node.js packages"},
			want:   "renovate/node.js-packages",
		},
		{
			name:   "group slug template",
			update: Update{DepName: "Foo", GroupName: "x", GroupSlug: "{{.depName}} group"},
			want:   "renovate/foo-group",
		},
		{
			name:   "group branch name override",
			update: Update{GroupName: "Linters", Group: Group{BranchName: "deps/{{.groupSlug}}"}},
			want:   "deps/linters",
		},
		{
			name:   "group branch topic override",
			update: Update{GroupName: "Linters", NewMajor: 2, Group: Group{BranchTopic: "{{.groupSlug}}-v{{.newMajor}}"}},
			want:   "renovate/linters-v2",
		},
		{
			name:   "strict mode",
			update: Update{DepName: "foo@bar_baz.js", BranchName: "{{.branchPrefix}}{{.depName}}", BranchNameStrict: true},
			want:   "renovate/foo-bar-baz-js",
		},
		{
			name:   "missing keys render empty",
			update: Update{BranchName: "{{.branchPrefix}}{{.unknown}}x"},
			want:   "renovate/x",
		},
		{
			name:   "missing keys in conditions",
			update: Update{BranchName: "{{.branchPrefix}}{{if .flag}}a{{end}}b"},
			want:   "renovate/b",
		},
		{
			name:   "literal text resembling a missing value",
			update: Update{DepName: "x", BranchName: "renovate/<no value>-{{.depName}}"},
			want:   "renovate/<novalue>-x",
		},
		{
			name:   "extra fields",
			update: Update{BranchName: "{{.branchPrefix}}{{.ticket}}", Extra: map[string]string{"ticket": "ABC-1"}},
			want:   "renovate/ABC-1",
		},
		{
			name:   "sprig functions",
			update: Update{DepName: "FOOBAR", BranchName: "{{.branchPrefix}}{{.depName | lower | trunc 3}}"},
			want:   "renovate/foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.update)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_Hashed(t *testing.T) {
	sum := sha512.Sum512([]byte("foo-2.x"))
	digest := hex.EncodeToString(sum[:])

	got, err := Generate(Update{DepName: "foo", NewMajor: 2, HashedBranchLength: 20})
	require.NoError(t, err)
	require.Equal(t, "renovate/"+digest[:11], got)
}

func TestGenerate_HashedRendersTopicThreeTimes(t *testing.T) {
	update := Update{
		BranchTopic:        "{{.a}}",
		HashedBranchLength: 20,
		Extra:              map[string]string{"a": "{{.b}}", "b": "{{.c}}", "c": "{{.d}}", "d": "done"},
	}
	sum := sha512.Sum512([]byte("{{.d}}"))
	digest := hex.EncodeToString(sum[:])

	got, err := Generate(update)
	require.NoError(t, err)
	require.Equal(t, "renovate/"+digest[:11], got)
}

func TestGenerate_HashedMinimumLengthWarns(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(slog.New(slog.NewTextHandler(&buf, nil)))

	sum := sha512.Sum512([]byte("foo-2.x"))
	digest := hex.EncodeToString(sum[:])

	got, err := g.Generate(Update{DepName: "foo", NewMajor: 2, HashedBranchLength: 10})
	require.NoError(t, err)
	require.Equal(t, "renovate/"+digest[:MinHashLength], got)
	require.Contains(t, buf.String(), "hashedBranchLength must allow for at least 6 characters")
}

func TestGenerate_TemplateError(t *testing.T) {
	_, err := Generate(Update{BranchName: "{{.depName"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestCleanBranchName(t *testing.T) {
	tests := []struct {
		in     string
		strict bool
		want   string
	}{
		{in: "renovate/.foo", want: "renovate/foo"},
		{in: ".foo.", want: "foo"},
		{in: "renovate/foo bar", want: "renovate/foobar"},
		{in: "renovate/foo:bar?", want: "renovate/foo-bar"},
		{in: "renovate/--foo--/bar-", want: "renovate/foo/bar"},
		{in: "renovate/a---b", want: "renovate/a-b"},
		{in: "renovate/foo..bar.lock", want: "renovate/foo.bar"},
		{in: "renovate//foo/", want: "renovate/foo"},
		{in: "renovate/a~b^c", want: "renovate/a-b-c"},
		{in: "renovate/some.pkg_name", strict: true, want: "renovate/some-pkg-name"},
		{in: "other/some.pkg", strict: true, want: "other-some-pkg"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CleanBranchName(tt.in, "renovate/", tt.strict), tt.in)
	}
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "unicode-group", Slugify("Ünïcödé Group!"))
	require.Equal(t, "all-non-major", Slugify("  All non-major  "))
	require.Empty(t, Slugify("!!!"))
	require.Equal(t, "node.js-packages", Slugify("Node.js packages"))
	require.Equal(t, "kotlin_version", Slugify("kotlin_version"))
}

func TestSanitizeDepName(t *testing.T) {
	require.Equal(t, "types-node", SanitizeDepName("@types/node"))
	require.Equal(t, "angular-core", SanitizeDepName("@angular/core"))
	require.Equal(t, "group-artifact", SanitizeDepName("group:artifact"))
}
