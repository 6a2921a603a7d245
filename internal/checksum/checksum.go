// Package checksum computes the content digests used for change detection
// and HTTP entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum for use as an HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag returns the digest carried by an If-Match or If-None-Match
// header value. Weak tags are accepted.
func FromETag(tag string) string {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
	return strings.Trim(tag, `"`)
}
