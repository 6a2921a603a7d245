package moc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/kenaz-moc/internal/ast"
	"github.com/starford/kenaz-moc/internal/link"
	"github.com/starford/kenaz-moc/internal/models"
)

var imageEmbedRe = regexp.MustCompile(`!(\[\[(.*?\.(png|jpg|webp|svg))\|(\d+)\]\])`)

// Repository lists notes by path prefix.
type Repository interface {
	ListNotes(prefix string) ([]models.Note, error)
}

// Options configures a Builder.
type Options struct {
	Style ast.Style
	// Exclude lists note paths that never become pages, such as the
	// output note itself.
	Exclude []string
}

// Builder assembles MOC sections from repository notes. A Builder is meant
// for a single render; it caches nothing between calls.
type Builder struct {
	repo    Repository
	links   *link.Converter
	style   ast.Style
	exclude map[string]struct{}
}

// NewBuilder returns a Builder reading notes from repo and resolving links
// through links. A zero Style is replaced by ast.DefaultStyle.
func NewBuilder(repo Repository, links *link.Converter, opts Options) *Builder {
	style := opts.Style
	if style == (ast.Style{}) {
		style = ast.DefaultStyle()
	}
	if links == nil {
		links = link.NewConverter(nil, style.ImageWidth)
	}
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, p := range opts.Exclude {
		exclude[p] = struct{}{}
	}
	return &Builder{repo: repo, links: links, style: style, exclude: exclude}
}

// Style returns the serializer style used by the builder.
func (b *Builder) Style() ast.Style { return b.style }

// BuildPages returns the pages under folder, newest first.
func (b *Builder) BuildPages(folder string) ([]Page, error) {
	notes, err := b.repo.ListNotes(folder)
	if err != nil {
		return nil, fmt.Errorf("moc: list notes in %q: %w", folder, err)
	}
	pages := make([]Page, 0, len(notes))
	for _, n := range notes {
		if !strings.HasPrefix(n.Path, folder) {
			continue
		}
		if _, skip := b.exclude[n.Path]; skip {
			continue
		}
		pages = append(pages, NewPage(n))
	}
	sortByCTime(pages)
	return pages, nil
}

// FolderHeading returns the last non-empty segment of folder.
func FolderHeading(folder string) string {
	parts := strings.Split(folder, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}

// FolderSection returns the heading, summary list and item sections of folder.
func (b *Builder) FolderSection(folder string) ([]*ast.Node, error) {
	pages, err := b.BuildPages(folder)
	if err != nil {
		return nil, err
	}
	return b.folderSection(folder, pages), nil
}

func (b *Builder) folderSection(folder string, pages []Page) []*ast.Node {
	nodes := []*ast.Node{
		ast.Heading(2, ast.RawText(FolderHeading(folder))),
		b.summaryList(pages),
	}
	for _, p := range pages {
		nodes = append(nodes, b.ItemSection(p)...)
	}
	return nodes
}

// summaryList returns a fresh list of title lines; callers needing the list
// twice build it twice so that no node has two parents.
func (b *Builder) summaryList(pages []Page) *ast.Node {
	items := make([]*ast.Node, len(pages))
	for i, p := range pages {
		items[i] = ast.ListItem(b.TitleLine(p))
	}
	return ast.List(items...)
}

// TitleLine returns the "section | title | file" paragraph of p.
func (b *Builder) TitleLine(p Page) *ast.Node {
	title := ast.Text(p.DisplayTitle())
	if p.URL != "" {
		title = ast.Anchor(p.URL, p.DisplayTitle())
	}
	return ast.Paragraph(
		ast.Anchor("#"+p.Note.Basename, "section"),
		ast.Text(" | "),
		title,
		ast.Text(" | "),
		ast.BlockRef(p.Note.Path, "file"),
	)
}

// ItemSection returns the detailed section of one page.
func (b *Builder) ItemSection(p Page) []*ast.Node {
	description := p.Description
	if description == "" {
		description = "No description"
	}
	ctime := p.CTime
	if ctime == "" {
		ctime = UnknownDate
	}
	comment := "No comment"
	if p.Comment != "" {
		comment = b.ReplaceImageEmbeds(strings.ReplaceAll(p.Comment, "<br>", "\n"))
	}

	return []*ast.Node{
		ast.Heading(3, ast.RawText(p.Note.Basename)),
		b.TitleLine(p),
		ast.Paragraph(ast.RawText(description)),
		b.TagParagraph(p),
		b.imageNode(p),
		ast.Paragraph(ast.RawText("Created at: " + ctime)),
		ast.Blockquote(ast.Paragraph(ast.RawText(comment))),
		b.AdditionalInfoTable(p),
	}
}

func (b *Builder) imageNode(p Page) *ast.Node {
	if l := link.ParseWikiLink(p.Image); l != nil {
		if img := b.links.ToImageNode(*l, 0); img != nil {
			return img
		}
	} else if link.IsURL(p.Image) {
		return ast.Image(p.Image, "", b.style.ImageWidth)
	}
	return ast.Paragraph(ast.Text("No image"))
}

// TagParagraph joins categories, keywords and tags with commas. Wiki-link
// values become block references to the resolved note; anything else is a
// #hashtag.
func (b *Builder) TagParagraph(p Page) *ast.Node {
	var values []string
	values = append(values, p.Categories...)
	values = append(values, p.Keywords...)
	values = append(values, p.Tags...)
	if len(values) == 0 {
		return ast.Paragraph(ast.Text("No tags"))
	}

	children := make([]*ast.Node, 0, 2*len(values)-1)
	for i, v := range values {
		if i > 0 {
			children = append(children, ast.Text(", "))
		}
		l := link.ParseWikiLink(v)
		if l == nil {
			children = append(children, ast.RawText("#"+v))
			continue
		}
		display := ""
		if l.Display != "" {
			display = "#" + l.Display
		}
		children = append(children, ast.BlockRef(b.links.ResolvePath(*l), display))
	}
	return ast.Paragraph(children...)
}

// AdditionalInfoTable renders the additional info of p as a key/value table
// with an empty head row, or a placeholder paragraph when there is none.
func (b *Builder) AdditionalInfoTable(p Page) *ast.Node {
	if len(p.AdditionalInfo) == 0 {
		return ast.Paragraph(ast.Text("No additional note"))
	}
	head := ast.TableHead(ast.TableRow(ast.TableCell(ast.Text("")), ast.TableCell(ast.Text(""))))
	rows := make([]*ast.Node, len(p.AdditionalInfo))
	for i, f := range p.AdditionalInfo {
		rows[i] = ast.TableRow(
			ast.TableCell(ast.RawText(f.Key)),
			ast.TableCell(b.links.ValueNodes(f.Value, false)...),
		)
	}
	return ast.Table(head, rows...)
}

// ReplaceImageEmbeds substitutes every ![[file.ext|width]] embed in s with
// an <img> tag, or removes it when the file does not resolve to an image.
// Scanning resumes after each substitution, so replacement text is never
// matched again.
func (b *Builder) ReplaceImageEmbeds(s string) string {
	pos := 0
	for {
		loc := imageEmbedRe.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			return s
		}
		start, end := pos+loc[0], pos+loc[1]
		width, _ := strconv.Atoi(s[pos+loc[8] : pos+loc[9]])

		replacement := ""
		if l := link.ParseWikiLink(s[pos+loc[2] : pos+loc[3]]); l != nil {
			if img := b.links.ToImageNode(*l, width); img != nil {
				replacement = b.style.Render(img)
			}
		}
		s = s[:start] + replacement + s[end:]
		pos = start + len(replacement)
	}
}
