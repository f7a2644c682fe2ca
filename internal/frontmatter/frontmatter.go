package frontmatter

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a markdown file split into its YAML frontmatter and body.
//
// Head holds the opening delimiter, the frontmatter and the closing delimiter
// exactly as read, so String reproduces the input byte for byte.
type Document struct {
	Head        string
	Frontmatter string
	Body        string
	Newline     string
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter line, the whole input is the
// body. A closing delimiter may end the file without a trailing newline.
func Split(content string) (Document, error) {
	nl := detectNewline(content)
	open := "---" + nl
	if !strings.HasPrefix(content, open) {
		return Document{Body: content, Newline: nl}, nil
	}

	rest := content[len(open):]
	if end, ok := closingLine(rest, 0, nl); ok {
		return Document{Head: content[:len(open)+end], Body: content[len(open)+end:], Newline: nl}, nil
	}

	for searchFrom := 0; ; {
		idx := strings.Index(rest[searchFrom:], nl+"---")
		if idx < 0 {
			return Document{Body: content, Newline: nl}, ErrMissingClosingDelimiter
		}
		lineStart := searchFrom + idx + len(nl)
		if end, ok := closingLine(rest, lineStart, nl); ok {
			head := len(open) + end
			return Document{
				Head:        content[:head],
				Frontmatter: rest[:lineStart],
				Body:        content[head:],
				Newline:     nl,
			}, nil
		}
		searchFrom = lineStart
	}
}

// closingLine reports whether s has a delimiter line at start and returns the
// offset just past it.
func closingLine(s string, start int, nl string) (int, bool) {
	line := s[start:]
	if !strings.HasPrefix(line, "---") {
		return 0, false
	}
	after := line[3:]
	switch {
	case after == "":
		return len(s), true
	case strings.HasPrefix(after, nl):
		return start + 3 + len(nl), true
	default:
		return 0, false
	}
}

// HasFrontmatter reports whether the document carried a frontmatter block.
func (d Document) HasFrontmatter() bool { return d.Head != "" }

// WithBody returns a copy of d with its body replaced.
func (d Document) WithBody(body string) Document {
	d.Body = body
	return d
}

// String reassembles the document.
func (d Document) String() string { return d.Head + d.Body }

// Fields parses the frontmatter into a map.
func (d Document) Fields() (map[string]any, error) {
	if strings.TrimSpace(d.Frontmatter) == "" {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(d.Frontmatter), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Bool looks up a boolean field. ok is false when the key is absent or not a boolean.
func (d Document) Bool(key string) (value bool, ok bool, err error) {
	fields, err := d.Fields()
	if err != nil {
		return false, false, err
	}
	v, ok := fields[key].(bool)
	return v, ok, nil
}

func detectNewline(content string) string {
	if i := strings.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
