package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/camden-git/wallpapersync/utils"
)

var (
	keywordSeparators = regexp.MustCompile(`[-_\s\p{Zs}\x{FEFF}、，,&]+`)
	numericToken      = regexp.MustCompile(`^\d+$`)
	extensionToken    = regexp.MustCompile(`(?i)^(jpg|png|webp|gif|jpeg)$`)
)

const maxKeywordLength = 20

// ExtractKeywords derives search keywords from a file name
func ExtractKeywords(filename string) []string {
	parts := keywordSeparators.Split(utils.StripExtension(filename), -1)

	keywords := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n := utf8.RuneCountInString(part)
		if n == 0 || n >= maxKeywordLength {
			continue
		}
		if numericToken.MatchString(part) || extensionToken.MatchString(part) {
			continue
		}
		if seen[part] {
			continue
		}
		seen[part] = true
		keywords = append(keywords, part)
	}
	return keywords
}
