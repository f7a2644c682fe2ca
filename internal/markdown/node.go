package markdown

// Options controls how Markdown is parsed.
type Options struct {
	// GFM enables the GitHub Flavored Markdown table, strikethrough and
	// task-list syntax. Bare URLs are never turned into links.
	GFM bool
}

// Kind identifies the variant carried by a Node.
type Kind int

const (
	// KindOther is a leaf that never contributes edits (code, raw HTML,
	// images, thematic breaks).
	KindOther Kind = iota
	// KindText is literal text; Value holds the exact source slice.
	KindText
	// KindLink is an inline link or autolink with an explicit destination.
	KindLink
	// KindContainer only groups children.
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLink:
		return "link"
	case KindContainer:
		return "container"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Node is one element of the parsed document tree.
//
// Start and End are byte offsets into the parsed source with
// 0 <= Start <= End <= len(source). Children are in source order.
type Node struct {
	Kind  Kind
	Start int
	End   int

	// Value is set for KindText and equals source[Start:End].
	Value string

	// Destination is set for KindLink.
	Destination string

	// Children holds label nodes for KindLink and child nodes for KindContainer.
	Children []*Node
}

// Parser turns raw markdown into a Node tree.
type Parser func(source string) (*Node, error)
