// Package link classifies link-like strings (wiki-links, markdown links,
// URLs, mailto addresses, ISO timestamps) and turns them into AST nodes.
package link

import "regexp"

var (
	bareLinkRe    = regexp.MustCompile(`^\[\[(.*)\]\]$`)
	displayLinkRe = regexp.MustCompile(`^\[\[(.*?)\|(.*)\]\]$`)
	mdLinkRe      = regexp.MustCompile(`^\[(.*)\]\((.*)\)$`)
	urlRe         = regexp.MustCompile(`^https?://`)
	isoTimeRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})$`)
)

const mailtoPrefix = "mailto:"

// Link is a parsed link reference. Display is empty when no label was given.
type Link struct {
	Path    string
	Display string
}

// ParseWikiLink parses [[path]] or [[path|display]]. It returns nil when s
// is empty or not a wiki-link.
func ParseWikiLink(s string) *Link {
	if s == "" {
		return nil
	}
	if m := displayLinkRe.FindStringSubmatch(s); m != nil {
		return &Link{Path: m[1], Display: m[2]}
	}
	if m := bareLinkRe.FindStringSubmatch(s); m != nil {
		return &Link{Path: m[1]}
	}
	return nil
}

// ParseMDLink parses [display](path). It returns nil when s is empty or
// not a markdown link.
func ParseMDLink(s string) *Link {
	if s == "" {
		return nil
	}
	if m := mdLinkRe.FindStringSubmatch(s); m != nil {
		return &Link{Path: m[2], Display: m[1]}
	}
	return nil
}

// IsURL reports whether s starts with an http or https scheme.
func IsURL(s string) bool { return urlRe.MatchString(s) }

// IsTimestamp reports whether s is an ISO-8601 date-time with a zone.
func IsTimestamp(s string) bool { return isoTimeRe.MatchString(s) }
