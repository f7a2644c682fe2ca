package branchname

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reMultipleDash      = regexp.MustCompile(`--+`)
	reSpecialCharStrict = regexp.MustCompile("[`~!@#$%^&*()_=+\\[\\]\\\\|{};':\",.<>?/]")
	reEdgeDot           = regexp.MustCompile(`^\.|\.$`)
	reDotAfterSlash     = regexp.MustCompile(`/\.`)
	reWhitespace        = regexp.MustCompile(`\s`)
	reRefSpecial        = regexp.MustCompile(`[\[\]?:\\^~]`)
	reLeadingDashes     = regexp.MustCompile(`(^|/)-+`)
	reTrailingDashes    = regexp.MustCompile(`-+(/|$)`)
	reNonSlug           = regexp.MustCompile(`[^a-z0-9._]+`)
)

// CleanBranchName turns name into a valid git branch name.
//
// In strict mode every special character after prefix is replaced with a
// dash. Leading and trailing dots and dashes, whitespace and the characters
// git forbids in refs are removed or replaced.
func CleanBranchName(name, prefix string, strict bool) string {
	cleaned := name
	if strict {
		existing := ""
		if strings.HasPrefix(cleaned, prefix) {
			existing = prefix
			cleaned = cleaned[len(prefix):]
		}
		cleaned = existing + reSpecialCharStrict.ReplaceAllString(cleaned, "-")
	}

	cleaned = cleanGitRef(cleaned)
	cleaned = reEdgeDot.ReplaceAllString(cleaned, "")
	cleaned = reDotAfterSlash.ReplaceAllString(cleaned, "/")
	cleaned = reWhitespace.ReplaceAllString(cleaned, "")
	cleaned = reRefSpecial.ReplaceAllString(cleaned, "-")
	cleaned = reLeadingDashes.ReplaceAllString(cleaned, "$1")
	cleaned = reTrailingDashes.ReplaceAllString(cleaned, "$1")
	return reMultipleDash.ReplaceAllString(cleaned, "-")
}

// cleanGitRef applies the check-ref-format rules: no control characters, no
// "..", no "@{", no "//", no leading or trailing slash and no ".lock" suffix.
func cleanGitRef(ref string) string {
	ref = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, ref)
	for strings.Contains(ref, "..") {
		ref = strings.ReplaceAll(ref, "..", ".")
	}
	ref = strings.ReplaceAll(ref, "@{", "-")
	for strings.Contains(ref, "//") {
		ref = strings.ReplaceAll(ref, "//", "/")
	}
	ref = strings.Trim(ref, "/")
	for strings.HasSuffix(ref, ".lock") {
		ref = strings.TrimSuffix(ref, ".lock")
	}
	if ref == "@" {
		return ""
	}
	return ref
}

var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lower-cases s, folds accented letters to their base form and joins
// the remaining runs of letters, digits, dots and underscores with dashes.
func Slugify(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}
	slug := reNonSlug.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// SanitizeDepName derives a branch-safe form of a dependency name.
func SanitizeDepName(depName string) string {
	s := strings.ReplaceAll(depName, "@types/", "types-")
	s = strings.ReplaceAll(s, "@", "")
	s = strings.ReplaceAll(s, "/", "-")
	s = reWhitespace.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = reMultipleDash.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}
