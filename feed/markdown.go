package feed

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/camden-git/wallpapersync/models"
)

var (
	historyLine = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*\|\s*\[(.+?)\s*\(©\s*(.+?)\)\]\((https://.+?)\)`)
	imageIDPart = regexp.MustCompile(`id=OHR\.([^_]+)_([A-Z]{2}-[A-Z]{2})(\d+)`)
)

// ParseHistory reads "YYYY-MM-DD | [title (© owner)](url)" lines. lines that do
// not match, or whose url carries no image id, are ignored. order is preserved
func ParseHistory(r io.Reader) ([]models.FeedEntry, error) {
	var entries []models.FeedEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := historyLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		date, title, owner, link := m[1], strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), m[4]

		id := imageIDPart.FindStringSubmatch(link)
		if id == nil {
			continue
		}

		entries = append(entries, models.FeedEntry{
			Date:      date,
			Title:     title,
			Copyright: fmt.Sprintf("%s (© %s)", title, owner),
			URLBase:   fmt.Sprintf("/th?id=OHR.%s_%s%s", id[1], id[2], id[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("feed: read history: %w", err)
	}
	return entries, nil
}
