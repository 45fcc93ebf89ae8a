package utils

import (
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s the way browsers do for a single URI
// component: everything except A-Z a-z 0-9 and - _ . ! ~ * ' ( ) is escaped
// as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponentByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreservedComponentByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EncodePath encodes every "/"-separated segment of p, keeping the separators.
func EncodePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = EncodeURIComponent(seg)
	}
	return strings.Join(segments, "/")
}

// BuildAssetURL joins a fixed directory convention (e.g. "thumbnail/desktop")
// with an already-relative asset path. Without a base URL the result is a
// root-relative path.
func BuildAssetURL(baseURL, dir, relativePath string) string {
	encoded := EncodePath(strings.TrimPrefix(relativePath, "/"))
	if dir = strings.Trim(dir, "/"); dir != "" {
		encoded = dir + "/" + encoded
	}
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + "/" + encoded
	}
	return "/" + encoded
}
