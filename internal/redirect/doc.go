// Package redirect rewrites references to issue, pull request and discussion
// pages inside markdown so they point at the platform's redirect host.
//
// Explicit links keep their markup and only the destination URL changes. Bare
// URLs in prose become inline links whose label is the original URL. Code
// spans, code blocks, raw HTML and images are never touched. A document is
// either rewritten completely or returned unchanged.
package redirect
