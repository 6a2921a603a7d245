package ast

import "regexp"

var escapeRe = regexp.MustCompile("([\\\\`*_\\[\\]{}()#+\\-.!])")

// Escape prefixes every markdown special character in s with a backslash.
func Escape(s string) string {
	return escapeRe.ReplaceAllString(s, `\${1}`)
}
