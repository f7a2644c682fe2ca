package markdown

import (
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Goldmark does not keep source positions for inline links. The wrappers in
// this file sit in front of the default link and autolink parsers and record
// where each link starts and ends while the inline pass runs.

var spanStateKey = parser.NewContextKey()

type span struct {
	start  int
	end    int
	inline bool
}

type opener struct {
	node  gmast.Node
	start int
}

type spanState struct {
	openers []opener
	nodes   map[gmast.Node]span
}

func spansFrom(pc parser.Context) *spanState {
	if st, ok := pc.Get(spanStateKey).(*spanState); ok {
		return st
	}
	st := &spanState{nodes: make(map[gmast.Node]span)}
	pc.Set(spanStateKey, st)
	return st
}

func (st *spanState) lookup(n gmast.Node) (span, bool) {
	if st == nil {
		return span{}, false
	}
	sp, ok := st.nodes[n]
	return sp, ok
}

// inlineParsers returns goldmark's default inline parsers with the link and
// autolink parsers wrapped at their original priorities.
func inlineParsers() []util.PrioritizedValue {
	defaults := parser.DefaultInlineParsers()
	out := make([]util.PrioritizedValue, 0, len(defaults))
	for _, v := range defaults {
		switch v.Value {
		case parser.NewLinkParser():
			v = util.Prioritized(&linkSpanParser{delegate: parser.NewLinkParser()}, v.Priority)
		case parser.NewAutoLinkParser():
			v = util.Prioritized(&autoLinkSpanParser{delegate: parser.NewAutoLinkParser()}, v.Priority)
		}
		out = append(out, v)
	}
	return out
}

type linkSpanParser struct {
	delegate parser.InlineParser
}

func (p *linkSpanParser) Trigger() []byte {
	return p.delegate.Trigger()
}

func (p *linkSpanParser) Parse(parent gmast.Node, block text.Reader, pc parser.Context) gmast.Node {
	line, segment := block.PeekLine()
	if len(line) == 0 {
		return p.delegate.Parse(parent, block, pc)
	}
	st := spansFrom(pc)

	if line[0] != ']' {
		n := p.delegate.Parse(parent, block, pc)
		if n != nil {
			st.openers = append(st.openers, opener{node: n, start: segment.Start})
		}
		return n
	}

	closeAt := segment.Start
	n := p.delegate.Parse(parent, block, pc)

	// The delegate detaches the opener it paired with this bracket, either by
	// removing it or by turning it back into text.
	var matched opener
	found := false
	kept := st.openers[:0]
	for _, o := range st.openers {
		if o.node.Parent() == nil {
			matched, found = o, true
			continue
		}
		kept = append(kept, o)
	}
	st.openers = kept

	if n == nil || !found {
		return n
	}
	switch n.(type) {
	case *gmast.Link, *gmast.Image:
	default:
		return n
	}

	_, pos := block.Position()
	end := pos.Start
	if end <= closeAt {
		end = closeAt + 1
	}
	src := block.Source()
	inline := end > closeAt+1 && closeAt+1 < len(src) && src[closeAt+1] == '('
	st.nodes[n] = span{start: matched.start, end: end, inline: inline}
	return n
}

func (p *linkSpanParser) CloseBlock(parent gmast.Node, block text.Reader, pc parser.Context) {
	if cb, ok := p.delegate.(parser.CloseBlocker); ok {
		cb.CloseBlock(parent, block, pc)
	}
	spansFrom(pc).openers = nil
}

type autoLinkSpanParser struct {
	delegate parser.InlineParser
}

func (p *autoLinkSpanParser) Trigger() []byte {
	return p.delegate.Trigger()
}

func (p *autoLinkSpanParser) Parse(parent gmast.Node, block text.Reader, pc parser.Context) gmast.Node {
	_, segment := block.PeekLine()
	start := segment.Start
	n := p.delegate.Parse(parent, block, pc)
	if al, ok := n.(*gmast.AutoLink); ok {
		_, pos := block.Position()
		spansFrom(pc).nodes[al] = span{start: start, end: pos.Start, inline: true}
	}
	return n
}
