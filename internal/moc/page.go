// Package moc builds the Map of Content document: per-folder page sections
// and cross-folder indexes, assembled into one markdown tree.
package moc

import (
	"sort"

	"github.com/starford/kenaz-moc/internal/link"
	"github.com/starford/kenaz-moc/internal/models"
)

const (
	UnknownDate = "Unknown"
	UnknownDay  = "Unknown Day"
)

// reservedKeys are the frontmatter keys rendered by dedicated parts of the
// item section and therefore left out of the additional-info table.
var reservedKeys = map[string]struct{}{
	"title":       {},
	"url":         {},
	"ctime":       {},
	"description": {},
	"cover":       {},
	"icon":        {},
	"comment":     {},
	"keywords":    {},
	"categories":  {},
	"tags":        {},
}

// Field is one additional-info entry.
type Field struct {
	Key   string
	Value any
}

// Page is one note together with the fields derived from it for a render.
type Page struct {
	Note models.Note

	Title       string
	URL         string
	Description string
	Comment     string
	CTime       string

	// Tags is the union of frontmatter and inline tags, first occurrence first.
	Tags       []string
	Categories []string
	Keywords   []string
	// AdditionalInfo keeps frontmatter order and never holds nil values.
	AdditionalInfo []Field
	// Image is the first non-empty of cover, icon and image.
	Image string

	Year  string
	Month string
	Day   string
}

// NewPage derives the page fields of n.
func NewPage(n models.Note) Page {
	fm := n.Frontmatter
	p := Page{
		Note:        n,
		Title:       scalar(fm, "title"),
		URL:         scalar(fm, "url"),
		Description: scalar(fm, "description"),
		Comment:     scalar(fm, "comment"),
		CTime:       scalar(fm, "ctime"),
		Tags:        dedupe(append(link.Strings(fm["tags"]), n.Tags...)),
		Categories:  link.Strings(fm["categories"]),
		Keywords:    link.Strings(fm["keywords"]),
	}
	for _, key := range []string{"cover", "icon", "image"} {
		if v := scalar(fm, key); v != "" {
			p.Image = v
			break
		}
	}
	for _, key := range orderedKeys(n) {
		if _, reserved := reservedKeys[key]; reserved {
			continue
		}
		if v := fm[key]; v != nil {
			p.AdditionalInfo = append(p.AdditionalInfo, Field{Key: key, Value: v})
		}
	}
	p.Year, p.Month, p.Day = dateParts(p.CTime)
	return p
}

// DisplayTitle returns the title, or the basename when there is none.
func (p Page) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Note.Basename
}

// FieldValues returns the grouping keys of the named field. Unknown fields
// are read from the frontmatter.
func (p Page) FieldValues(field string) []string {
	switch field {
	case "tags":
		return p.Tags
	case "categories":
		return p.Categories
	case "keywords":
		return p.Keywords
	case "year":
		return []string{p.Year}
	case "month":
		return []string{p.Month}
	case "day":
		return []string{p.Day}
	}
	return link.Strings(p.Note.Frontmatter[field])
}

// sortByCTime orders pages newest first. ISO timestamps sort
// lexicographically; pages without ctime go last in their original order.
func sortByCTime(pages []Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i].CTime, pages[j].CTime
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
}

func dateParts(ctime string) (year, month, day string) {
	if ctime == "" {
		return UnknownDate, UnknownDate, UnknownDay
	}
	return prefix(ctime, 4), prefix(ctime, 7), prefix(ctime, 10)
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func scalar(fm map[string]any, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return link.FormatValue(v)
}

// orderedKeys returns the frontmatter keys in file order, followed by any
// key missing from that order sorted by name.
func orderedKeys(n models.Note) []string {
	seen := make(map[string]struct{}, len(n.Frontmatter))
	keys := make([]string, 0, len(n.Frontmatter))
	for _, k := range n.FrontmatterKeys {
		if _, ok := n.Frontmatter[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	var rest []string
	for k := range n.Frontmatter {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
