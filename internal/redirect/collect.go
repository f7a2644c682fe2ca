package redirect

import (
	"strings"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/markdown"
)

// collection is the result of walking one subtree. Each walk returns its own
// value; parents only concatenate.
type collection struct {
	edits []markdown.Edit
	links int
	texts int
}

func (c collection) plus(o collection) collection {
	if len(o.edits) == 0 {
		return c
	}
	edits := make([]markdown.Edit, 0, len(c.edits)+len(o.edits))
	edits = append(edits, c.edits...)
	edits = append(edits, o.edits...)
	return collection{edits: edits, links: c.links + o.links, texts: c.texts + o.texts}
}

// collect walks n depth-first in document order and returns the edits for
// every reference it finds. raw is the text n was parsed from.
func collect(m *Matcher, n *markdown.Node, raw string) (collection, error) {
	switch n.Kind {
	case markdown.KindLink:
		return collectLink(m, n, raw)
	case markdown.KindText:
		return collectText(m, n)
	case markdown.KindContainer:
		var out collection
		for _, child := range n.Children {
			c, err := collect(m, child, raw)
			if err != nil {
				return collection{}, err
			}
			out = out.plus(c)
		}
		return out, nil
	case markdown.KindOther:
		return collection{}, nil
	default:
		return collection{}, errors.InternalError("unknown node kind").
			WithContext("kind", n.Kind.String()).
			Build()
	}
}

// collectLink rewrites the destination of an explicit link. The label is not
// scanned, so a label repeating the URL is left alone.
func collectLink(m *Matcher, n *markdown.Node, raw string) (collection, error) {
	ok, err := m.MatchString(n.Destination)
	if err != nil || !ok {
		return collection{}, err
	}
	if n.Start < 0 || n.End > len(raw) || n.Start > n.End {
		return collection{}, offsetAnomaly("link outside document", n)
	}

	// The last occurrence is the destination; the label may repeat the URL.
	idx := strings.LastIndex(raw[n.Start:n.End], n.Destination)
	if idx < 0 {
		return collection{}, offsetAnomaly("link destination not found in link source", n)
	}
	canonical, err := m.Canonicalize(n.Destination)
	if err != nil {
		return collection{}, err
	}

	start := n.Start + idx
	return collection{
		edits: []markdown.Edit{{Start: start, End: start + len(n.Destination), Replacement: canonical}},
		links: 1,
	}, nil
}

// collectText turns every bare reference in a text node into an inline link
// labelled with the original URL.
func collectText(m *Matcher, n *markdown.Node) (collection, error) {
	spans, err := m.FindAll(n.Value)
	if err != nil || len(spans) == 0 {
		return collection{}, err
	}

	out := collection{edits: make([]markdown.Edit, 0, len(spans)), texts: len(spans)}
	for _, s := range spans {
		url := n.Value[s.Start:s.End]
		canonical, err := m.Canonicalize(url)
		if err != nil {
			return collection{}, err
		}
		out.edits = append(out.edits, markdown.Edit{
			Start:       n.Start + s.Start,
			End:         n.Start + s.End,
			Replacement: "[" + url + "](" + canonical + ")",
		})
	}
	return out, nil
}

func offsetAnomaly(message string, n *markdown.Node) error {
	return errors.NewError(errors.CategoryOffset, message).
		WithContext("start", n.Start).
		WithContext("end", n.End).
		WithContext("destination", n.Destination).
		Build()
}
