package moc

import (
	"fmt"
	"sort"

	"github.com/starford/kenaz-moc/internal/ast"
	"github.com/starford/kenaz-moc/internal/link"
)

// IndexSpec describes one cross-folder index.
type IndexSpec struct {
	// Field is the page field to group by: categories, tags, keywords,
	// year, month, day, or any frontmatter key.
	Field string
	// Label names the index; the heading reads "<Label> Index".
	Label string
	// HideSingleton drops groups with a single page.
	HideSingleton bool
}

// Heading returns the heading text of the index.
func (s IndexSpec) Heading() string {
	return s.Label + " Index"
}

// Group is one index key with the pages referencing it, in page order.
type Group struct {
	Key   string
	Pages []Page
}

// Index builds the index described by spec over the pages of folders.
func (b *Builder) Index(folders []string, spec IndexSpec) ([]*ast.Node, error) {
	var pages []Page
	for _, f := range folders {
		ps, err := b.BuildPages(f)
		if err != nil {
			return nil, err
		}
		pages = append(pages, ps...)
	}
	return b.indexSection(spec, b.Groups(pages, spec)), nil
}

// Groups groups pages by the values of spec.Field. A wiki-link value is
// keyed by its resolved path. Pages appearing under several folders are
// counted once. Keys are sorted ascending.
func (b *Builder) Groups(pages []Page, spec IndexSpec) []Group {
	byKey := make(map[string]*Group)
	seenPage := make(map[string]struct{}, len(pages))
	for _, p := range pages {
		if _, dup := seenPage[p.Note.Path]; dup {
			continue
		}
		seenPage[p.Note.Path] = struct{}{}

		member := make(map[string]struct{})
		for _, v := range p.FieldValues(spec.Field) {
			key := v
			if l := link.ParseWikiLink(v); l != nil {
				key = b.links.ResolvePath(*l)
			}
			if _, ok := member[key]; ok {
				continue
			}
			member[key] = struct{}{}

			g, ok := byKey[key]
			if !ok {
				g = &Group{Key: key}
				byKey[key] = g
			}
			g.Pages = append(g.Pages, p)
		}
	}

	groups := make([]Group, 0, len(byKey))
	for _, g := range byKey {
		if spec.HideSingleton && len(g.Pages) < 2 {
			continue
		}
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

func (b *Builder) indexSection(spec IndexSpec, groups []Group) []*ast.Node {
	summary := make([]*ast.Node, len(groups))
	for i, g := range groups {
		summary[i] = ast.ListItem(ast.Paragraph(
			ast.Anchor("#"+g.Key, g.Key),
			ast.RawText(fmt.Sprintf(" (%d)", len(g.Pages))),
		))
	}

	nodes := []*ast.Node{
		ast.Heading(2, ast.RawText(spec.Heading())),
		ast.List(summary...),
	}
	for _, g := range groups {
		nodes = append(nodes, ast.Heading(3, ast.RawText(g.Key)), b.summaryList(g.Pages))
	}
	return nodes
}
