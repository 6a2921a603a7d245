package moc

import (
	"github.com/starford/kenaz-moc/internal/ast"
)

// DocumentSpec lists what goes into a MOC document.
type DocumentSpec struct {
	Folders []string
	Indexes []IndexSpec
}

// Document returns the full MOC tree: a blockquoted table of contents,
// then one section per folder, then one section per index.
func (b *Builder) Document(spec DocumentSpec) (*ast.Node, error) {
	doc, _, err := b.Build(spec)
	return doc, err
}

// Build is like Document and also returns the pages listed in the folder
// sections, in document order.
func (b *Builder) Build(spec DocumentSpec) (*ast.Node, []Page, error) {
	folderPages := make([][]Page, len(spec.Folders))
	var all []Page
	for i, f := range spec.Folders {
		pages, err := b.BuildPages(f)
		if err != nil {
			return nil, nil, err
		}
		folderPages[i] = pages
		all = append(all, pages...)
	}

	toc := make([]*ast.Node, 0, len(spec.Folders)+len(spec.Indexes))
	for i, f := range spec.Folders {
		heading := FolderHeading(f)
		toc = append(toc, ast.ListItem(
			ast.Paragraph(ast.Anchor("#"+heading, heading)),
			b.summaryList(folderPages[i]),
		))
	}
	for _, idx := range spec.Indexes {
		toc = append(toc, ast.ListItem(ast.Paragraph(ast.Anchor("#"+idx.Heading(), idx.Heading()))))
	}

	children := []*ast.Node{ast.Blockquote(ast.List(toc...))}
	for i, f := range spec.Folders {
		children = append(children, b.folderSection(f, folderPages[i])...)
	}
	for _, idx := range spec.Indexes {
		children = append(children, b.indexSection(idx, b.Groups(all, idx))...)
	}
	return ast.Doc(children...), all, nil
}

// Render builds the document described by spec and serializes it.
func (b *Builder) Render(spec DocumentSpec) (string, error) {
	doc, err := b.Document(spec)
	if err != nil {
		return "", err
	}
	return b.style.Render(doc), nil
}
