package ast

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultImageWidth is the width used by images without an explicit one.
const DefaultImageWidth = 200

var whitespaceRe = regexp.MustCompile(`\s+`)

// Style holds the configurable markers used by the serializer.
type Style struct {
	HeadingMarker string
	Tab           string
	Dash          string
	ImageWidth    int
}

// DefaultStyle returns the style used when nothing is configured.
func DefaultStyle() Style {
	return Style{
		HeadingMarker: "#",
		Tab:           "\t",
		Dash:          "-",
		ImageWidth:    DefaultImageWidth,
	}
}

// Render serializes n with the default style.
func Render(n *Node) string {
	return DefaultStyle().Render(n)
}

// Render serializes the tree rooted at n. Rendering is a pure function of
// the tree; the same tree always yields the same text.
func (s Style) Render(n *Node) string {
	return s.render(n, -1)
}

func (s Style) render(n *Node, indent int) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindDocument:
		return s.join(n.Children, indent, "\n\n")
	case KindHeading:
		level := n.HeadingLevel
		if level < 1 {
			level = 1
		}
		return strings.Repeat(s.HeadingMarker, level) + " " + s.join(n.Children, indent, "")
	case KindRawText:
		return n.Data
	case KindText:
		return Escape(n.Data)
	case KindTextMark:
		return s.renderMark(n.Mark)
	case KindImage:
		return s.renderImage(n)
	case KindBlockquoteMarker:
		if n.Data == "" {
			return ">"
		}
		return n.Data
	case KindBlockquote:
		return s.renderBlockquote(n, indent)
	case KindParagraph, KindTableCell:
		return s.join(n.Children, indent, "")
	case KindListItem:
		return s.renderListItem(n, indent)
	case KindList:
		return s.join(n.Children, indent+1, "\n")
	case KindTable:
		return s.renderTable(n, indent)
	case KindTableHead:
		return s.join(filterKind(n.Children, KindTableRow), indent, "\n")
	case KindTableRow:
		return "| " + s.join(filterKind(n.Children, KindTableCell), indent, " | ") + " |"
	case KindBr:
		return "<br>"
	case KindBang, KindOpenBracket, KindCloseBracket, KindOpenParen, KindCloseParen, KindLinkText, KindLinkDest:
		return ""
	}
	panic(fmt.Sprintf("ast: no render rule for %s", n.Kind))
}

func (s Style) join(nodes []*Node, indent int, sep string) string {
	parts := make([]string, len(nodes))
	for i, c := range nodes {
		parts[i] = s.render(c, indent)
	}
	return strings.Join(parts, sep)
}

func (s Style) renderMark(m *TextMark) string {
	if m == nil {
		return ""
	}
	switch m.Type {
	case MarkBlockRef:
		label := m.TextContent
		if label == "" {
			label = m.BlockRefID
		}
		return "[" + Escape(label) + "](<" + m.BlockRefID + ">)"
	default:
		label := m.Href
		if m.TextContent != "" {
			label = Escape(m.TextContent)
		}
		return "[" + label + "](<" + m.Href + ">)"
	}
}

func (s Style) renderImage(n *Node) string {
	var src, alt string
	if d := n.Child(KindLinkDest); d != nil {
		src = d.Data
	}
	if t := n.Child(KindLinkText); t != nil {
		alt = t.Data
	}
	var width any = s.ImageWidth
	if w, ok := n.Properties["width"]; ok && w != nil {
		width = w
	}
	tag := fmt.Sprintf(`<img src="%s" width=%v alt="%s"/>`, src, width, alt)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(tag, " "))
}

func (s Style) renderBlockquote(n *Node, indent int) string {
	marker := ">"
	if m := n.Child(KindBlockquoteMarker); m != nil {
		marker = s.render(m, indent)
	}
	body := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind != KindBlockquoteMarker {
			body = append(body, c)
		}
	}
	lines := strings.Split(s.join(body, indent, "\n"), "\n")
	for i, line := range lines {
		lines[i] = marker + " " + line
	}
	return strings.Join(lines, "\n")
}

// renderListItem prefixes the first emitted line with the dash marker and
// every later line with a blank of the same width. Nested lists carry
// their own indentation and count toward the emitted lines.
func (s Style) renderListItem(n *Node, indent int) string {
	tabs := strings.Repeat(s.Tab, max(indent, 0))
	emitted := 0
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == KindList {
			out := s.render(c, indent)
			if out == "" {
				continue
			}
			emitted += strings.Count(out, "\n") + 1
			parts = append(parts, out)
			continue
		}
		lines := strings.Split(s.render(c, indent), "\n")
		for i, line := range lines {
			bullet := " "
			if emitted == 0 {
				bullet = s.Dash
			}
			lines[i] = tabs + bullet + " " + line
			emitted++
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n")
}

func (s Style) renderTable(n *Node, indent int) string {
	head := n.Child(KindTableHead)
	columns := 0
	if head != nil && len(head.Children) > 0 {
		columns = len(head.Children[0].Children)
	}
	out := make([]string, 0, len(n.Children)+1)
	if head != nil {
		out = append(out, s.render(head, indent))
	}
	out = append(out, "|"+strings.Repeat(" --- |", columns))
	for _, row := range filterKind(n.Children, KindTableRow) {
		out = append(out, s.render(row, indent))
	}
	lines := out[:0]
	for _, l := range out {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func filterKind(nodes []*Node, kind Kind) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
