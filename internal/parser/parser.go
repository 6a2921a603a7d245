// Package parser extracts frontmatter, wikilinks, and inline tags from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	fenceRe    = regexp.MustCompile("(?ms)^```.*?^```")
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	// Keys lists the frontmatter keys in file order.
	Keys  []string
	Body  string
	Links []string
	// Tags are the #tags written in the body, without the leading '#'.
	Tags  []string
	Title string
}

// Parse extracts frontmatter, body, wikilinks, and inline tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, keys, body := splitFrontmatter(data)

	return &Result{
		Frontmatter: fm,
		Keys:        keys,
		Body:        body,
		Links:       extractLinks(body),
		Tags:        extractTags(body),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
// Invalid YAML is treated as body as well.
func splitFrontmatter(data []byte) (map[string]any, []string, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		return nil, nil, string(data)
	}
	var fm map[string]any
	if err := doc.Decode(&fm); err != nil {
		return nil, nil, string(data)
	}
	return fm, mappingKeys(&doc), body
}

// mappingKeys returns the keys of the top-level YAML mapping in document order.
func mappingKeys(doc *yaml.Node) []string {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects inline #tags from the body, skipping fenced code.
func extractTags(body string) []string {
	body = fenceRe.ReplaceAllString(body, "")
	seen := make(map[string]struct{})
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
