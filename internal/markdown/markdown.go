package markdown

import (
	"sync"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
)

var markdowns sync.Map // Options -> goldmark.Markdown

func markdownFor(opts Options) goldmark.Markdown {
	if md, ok := markdowns.Load(opts); ok {
		return md.(goldmark.Markdown)
	}
	md, _ := markdowns.LoadOrStore(opts, newMarkdown(opts))
	return md.(goldmark.Markdown)
}

func newMarkdown(opts Options) goldmark.Markdown {
	p := parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(inlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.Table, extension.Strikethrough, extension.TaskList)
	}
	return goldmark.New(goldmark.WithParser(p), goldmark.WithExtensions(exts...))
}

func parse(body []byte, opts Options) (gmast.Node, *spanState) {
	ctx := parser.NewContext()
	root := markdownFor(opts).Parser().Parse(text.NewReader(body), parser.WithContext(ctx))
	st, _ := ctx.Get(spanStateKey).(*spanState)
	return root, st
}

// ParseBody parses a Markdown body (frontmatter already removed) into a Goldmark AST.
func ParseBody(body []byte, opts Options) (gmast.Node, error) {
	root, _ := parse(body, opts)
	return root, nil
}

// NewParser returns a Parser bound to opts.
func NewParser(opts Options) Parser {
	return func(source string) (*Node, error) {
		return Parse(source, opts)
	}
}

// Parse converts source into a Node tree whose offsets index into source.
func Parse(source string, opts Options) (*Node, error) {
	body := []byte(source)
	root, st := parse(body, opts)
	c := converter{source: body, spans: st}
	doc := &Node{Kind: KindContainer, Start: 0, End: len(body)}
	children, err := c.children(root, 0)
	if err != nil {
		return nil, err
	}
	doc.Children = children
	return doc, nil
}

type converter struct {
	source []byte
	spans  *spanState
}

func (c *converter) node(n gmast.Node, parentStart int) (*Node, error) {
	start, end := c.extent(n, parentStart)
	if err := c.check(n, start, end); err != nil {
		return nil, err
	}
	out := &Node{Kind: KindContainer, Start: start, End: end}

	switch v := n.(type) {
	case *gmast.Link:
		sp, ok := c.spans.lookup(v)
		if ok && sp.inline {
			out.Kind = KindLink
			out.Destination = string(v.Destination)
		}
	case *gmast.AutoLink:
		if _, ok := c.spans.lookup(v); !ok {
			out.Kind = KindOther
			return out, nil
		}
		out.Kind = KindLink
		out.Destination = string(v.Label(c.source))
	case *gmast.CodeSpan, *gmast.FencedCodeBlock, *gmast.CodeBlock, *gmast.HTMLBlock,
		*gmast.RawHTML, *gmast.Image, *gmast.ThematicBreak, *gmast.String:
		out.Kind = KindOther
		return out, nil
	}

	children, err := c.children(n, start)
	if err != nil {
		return nil, err
	}
	out.Children = children
	return out, nil
}

// children converts the children of n. Runs of adjacent text nodes that are
// contiguous in the source become one text node; goldmark splits text at
// delimiter characters such as '_' and '*'.
func (c *converter) children(n gmast.Node, parentStart int) ([]*Node, error) {
	var out []*Node
	var run *Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*gmast.Text); ok {
			seg := t.Segment
			if run != nil && run.End == seg.Start {
				run.End = seg.Stop
			} else {
				run = &Node{Kind: KindText, Start: seg.Start, End: seg.Stop}
				out = append(out, run)
			}
			if t.SoftLineBreak() || t.HardLineBreak() {
				run = nil
			}
			continue
		}
		run = nil
		converted, err := c.node(child, parentStart)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}

	for _, node := range out {
		if node.Kind != KindText {
			continue
		}
		if err := c.check(n, node.Start, node.End); err != nil {
			return nil, err
		}
		node.Value = string(c.source[node.Start:node.End])
	}
	return out, nil
}

// extent returns the source range covered by n. Links carry recorded spans,
// blocks their lines; other nodes are bounded by their descendants.
func (c *converter) extent(n gmast.Node, parentStart int) (int, int) {
	if sp, ok := c.spans.lookup(n); ok {
		return sp.start, sp.end
	}
	if v, ok := n.(*gmast.RawHTML); ok && v.Segments != nil && v.Segments.Len() > 0 {
		return v.Segments.At(0).Start, v.Segments.At(v.Segments.Len() - 1).Stop
	}
	if n.Type() == gmast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, lines.At(lines.Len() - 1).Stop
		}
	}

	start, end, found := 0, 0, false
	widen := func(s, e int) {
		if !found {
			start, end, found = s, e, true
			return
		}
		start = min(start, s)
		end = max(end, e)
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*gmast.Text); ok {
			widen(t.Segment.Start, t.Segment.Stop)
			continue
		}
		s, e := c.extent(child, parentStart)
		if s == e && s == parentStart && child.FirstChild() == nil {
			continue
		}
		widen(s, e)
	}
	if !found {
		return parentStart, parentStart
	}
	return start, end
}

func (c *converter) check(n gmast.Node, start, end int) error {
	if start < 0 || end < start || end > len(c.source) {
		return errors.NewError(errors.CategoryParse, "node outside source bounds").
			WithContext("node", n.Kind().String()).
			WithContext("start", start).
			WithContext("end", end).
			WithContext("length", len(c.source)).
			Build()
	}
	return nil
}
