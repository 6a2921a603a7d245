// Package ast models the subset of markdown emitted by the MOC renderer and
// serializes it to text.
package ast

import "fmt"

// Kind identifies the type of a Node.
type Kind int

// Node kinds. Bang through LinkDest are structural: they only appear as
// children of an Image and carry no render rule of their own.
const (
	KindDocument Kind = iota
	KindHeading
	KindParagraph
	KindList
	KindListItem
	KindText
	KindRawText
	KindTextMark
	KindBlockquote
	KindBlockquoteMarker
	KindImage
	KindBang
	KindOpenBracket
	KindCloseBracket
	KindOpenParen
	KindCloseParen
	KindLinkText
	KindLinkDest
	KindTable
	KindTableHead
	KindTableRow
	KindTableCell
	KindBr

	kindCount
)

var kindNames = [kindCount]string{
	KindDocument:         "Document",
	KindHeading:          "Heading",
	KindParagraph:        "Paragraph",
	KindList:             "List",
	KindListItem:         "ListItem",
	KindText:             "Text",
	KindRawText:          "RawText",
	KindTextMark:         "TextMark",
	KindBlockquote:       "Blockquote",
	KindBlockquoteMarker: "BlockquoteMarker",
	KindImage:            "Image",
	KindBang:             "Bang",
	KindOpenBracket:      "OpenBracket",
	KindCloseBracket:     "CloseBracket",
	KindOpenParen:        "OpenParen",
	KindCloseParen:       "CloseParen",
	KindLinkText:         "LinkText",
	KindLinkDest:         "LinkDest",
	KindTable:            "Table",
	KindTableHead:        "TableHead",
	KindTableRow:         "TableRow",
	KindTableCell:        "TableCell",
	KindBr:               "Br",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Structural reports whether k is only meaningful as a child of an Image.
func (k Kind) Structural() bool {
	switch k {
	case KindBang, KindOpenBracket, KindCloseBracket, KindOpenParen, KindCloseParen, KindLinkText, KindLinkDest:
		return true
	}
	return false
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindDocument; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// MarkType distinguishes the two text-mark variants.
type MarkType int

const (
	// MarkAnchor is a hyperlink to an href.
	MarkAnchor MarkType = iota
	// MarkBlockRef points at a note or file in the vault.
	MarkBlockRef
)

// TextMark holds the variant data of a KindTextMark node.
// An empty TextContent means the label falls back to the target.
type TextMark struct {
	Type        MarkType
	Href        string
	BlockRefID  string
	TextContent string
}

// Node is one element of the markdown tree. Children are owned by their
// parent; a node is never attached to two parents.
type Node struct {
	Kind         Kind
	Data         string
	Children     []*Node
	HeadingLevel int
	Mark         *TextMark
	Properties   map[string]any
}

// SetChildren replaces the children of n and returns n.
func (n *Node) SetChildren(children ...*Node) *Node {
	n.Children = children
	return n
}

// Child returns the first direct child of the given kind, or nil.
func (n *Node) Child(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

func newNode(kind Kind, children []*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// Doc returns the document root.
func Doc(children ...*Node) *Node { return newNode(KindDocument, children) }

// Heading returns a heading of the given level.
func Heading(level int, children ...*Node) *Node {
	n := newNode(KindHeading, children)
	n.HeadingLevel = level
	return n
}

// Paragraph returns a paragraph whose children are rendered back to back.
func Paragraph(children ...*Node) *Node { return newNode(KindParagraph, children) }

// List returns a bullet list of ListItem nodes.
func List(items ...*Node) *Node { return newNode(KindList, items) }

// ListItem returns a list item. At most one child should be a nested List.
func ListItem(children ...*Node) *Node { return newNode(KindListItem, children) }

// Text returns a text node that is markdown-escaped on output.
func Text(s string) *Node { return &Node{Kind: KindText, Data: s} }

// RawText returns a text node emitted verbatim.
func RawText(s string) *Node { return &Node{Kind: KindRawText, Data: s} }

// Anchor returns a hyperlink mark.
func Anchor(href, text string) *Node {
	return &Node{Kind: KindTextMark, Mark: &TextMark{Type: MarkAnchor, Href: href, TextContent: text}}
}

// BlockRef returns a vault reference mark. An empty text falls back to id.
func BlockRef(id, text string) *Node {
	return &Node{Kind: KindTextMark, Mark: &TextMark{Type: MarkBlockRef, BlockRefID: id, TextContent: text}}
}

// BlockquoteMarker returns the marker child of a blockquote.
func BlockquoteMarker() *Node { return &Node{Kind: KindBlockquoteMarker, Data: ">"} }

// Blockquote returns a blockquote with the default marker followed by children.
func Blockquote(children ...*Node) *Node {
	return newNode(KindBlockquote, append([]*Node{BlockquoteMarker()}, children...))
}

// Image returns an image node; width is stored in Properties.
func Image(src, alt string, width int) *Node {
	n := newNode(KindImage, []*Node{
		{Kind: KindBang},
		{Kind: KindOpenBracket},
		{Kind: KindLinkText, Data: alt},
		{Kind: KindCloseBracket},
		{Kind: KindOpenParen},
		{Kind: KindLinkDest, Data: src},
		{Kind: KindCloseParen},
	})
	n.Properties = map[string]any{"width": width}
	return n
}

// Table returns a table with an optional head followed by body rows.
func Table(head *Node, rows ...*Node) *Node {
	children := make([]*Node, 0, len(rows)+1)
	if head != nil {
		children = append(children, head)
	}
	return newNode(KindTable, append(children, rows...))
}

// TableHead returns the head section of a table.
func TableHead(rows ...*Node) *Node { return newNode(KindTableHead, rows) }

// TableRow returns a table row.
func TableRow(cells ...*Node) *Node { return newNode(KindTableRow, cells) }

// TableCell returns a table cell.
func TableCell(children ...*Node) *Node { return newNode(KindTableCell, children) }

// Br returns a line break.
func Br() *Node { return &Node{Kind: KindBr, Data: "br"} }
