package link

import (
	"path"
	"strings"

	"github.com/starford/kenaz-moc/internal/ast"
	"github.com/starford/kenaz-moc/internal/models"
)

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"png":  {},
	"webp": {},
	"svg":  {},
}

// IsImage reports whether p has an extension rendered as an image.
func IsImage(p string) bool {
	_, ok := imageExtensions[strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))]
	return ok
}

// Resolver maps a link name to a vault file.
type Resolver interface {
	ResolveLink(linkpath string) (models.Target, bool)
}

// Converter builds AST nodes for links, resolving targets through a Resolver.
// Resolution failures never produce errors: the raw path is used instead.
type Converter struct {
	resolver   Resolver
	imageWidth int
}

// NewConverter returns a Converter. A nil resolver resolves nothing; a
// non-positive imageWidth falls back to ast.DefaultImageWidth.
func NewConverter(r Resolver, imageWidth int) *Converter {
	if imageWidth <= 0 {
		imageWidth = ast.DefaultImageWidth
	}
	return &Converter{resolver: r, imageWidth: imageWidth}
}

// Resolve looks up name. It reports false when there is no resolver or no match.
func (c *Converter) Resolve(name string) (models.Target, bool) {
	if c.resolver == nil || name == "" {
		return models.Target{}, false
	}
	return c.resolver.ResolveLink(name)
}

// ResolvePath returns the canonical path of l, or its raw path if unresolved.
func (c *Converter) ResolvePath(l Link) string {
	if t, ok := c.Resolve(l.Path); ok {
		return t.Path
	}
	return l.Path
}

// ToMDLink returns an anchor pointing at the resolved path of l.
func (c *Converter) ToMDLink(l Link) *ast.Node {
	href := c.ResolvePath(l)
	text := l.Display
	if text == "" {
		text = href
	}
	return ast.Anchor(href, text)
}

// ToBlockRef returns a block reference to the resolved path of l.
func (c *Converter) ToBlockRef(l Link) *ast.Node {
	return ast.BlockRef(c.ResolvePath(l), l.Display)
}

// ToImageNode returns an image for l when it resolves to a jpg, png, webp
// or svg file, and nil otherwise. A non-positive width uses the default.
func (c *Converter) ToImageNode(l Link, width int) *ast.Node {
	t, ok := c.Resolve(l.Path)
	if !ok {
		return nil
	}
	if !IsImage("." + t.Extension) {
		return nil
	}
	if width <= 0 {
		width = c.imageWidth
	}
	return ast.Image(t.Path, l.Display, width)
}

// ValueNodes classifies an arbitrary frontmatter value and returns the nodes
// that render it. Strings are tried, in order, as a wiki-link, a markdown
// link, a URL, a mailto address and an ISO timestamp; anything else becomes
// escaped text, or raw text when raw is set. Slices render their elements
// separated by line breaks.
func (c *Converter) ValueNodes(value any, raw bool) []*ast.Node {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return c.stringNodes(v, raw)
	case []any:
		return c.sliceNodes(len(v), func(i int) any { return v[i] }, raw)
	case []string:
		return c.sliceNodes(len(v), func(i int) any { return v[i] }, raw)
	}
	return []*ast.Node{ast.Text(FormatValue(value))}
}

func (c *Converter) sliceNodes(n int, at func(int) any, raw bool) []*ast.Node {
	var out []*ast.Node
	for i := 0; i < n; i++ {
		out = append(out, ast.Br())
		out = append(out, c.ValueNodes(at(i), raw)...)
	}
	if len(out) == 0 {
		return nil
	}
	return out[1:]
}

func (c *Converter) stringNodes(s string, raw bool) []*ast.Node {
	if l := ParseWikiLink(s); l != nil {
		nodes := []*ast.Node{c.ToMDLink(*l)}
		if img := c.ToImageNode(*l, 0); img != nil {
			nodes = append(nodes, ast.Br(), img)
		}
		return nodes
	}
	if l := ParseMDLink(s); l != nil {
		return []*ast.Node{c.ToMDLink(*l)}
	}
	if IsURL(s) {
		return []*ast.Node{ast.Anchor(s, s)}
	}
	if strings.HasPrefix(s, mailtoPrefix) {
		return []*ast.Node{ast.Anchor(s, strings.TrimPrefix(s, mailtoPrefix))}
	}
	if IsTimestamp(s) || raw {
		return []*ast.Node{ast.RawText(s)}
	}
	return []*ast.Node{ast.Text(s)}
}
