// Package docs applies link rewriting to markdown documents on disk.
//
// Discover selects files below a directory with glob patterns. A Processor
// splits YAML frontmatter off each document, rewrites the body and reports a
// FileResult; Run processes many paths and writes changes back unless it runs
// in ModeDryRun.
package docs
