package models

// FeedEntry is one day of the external daily-image feed, keyed by Date (YYYY-MM-DD)
type FeedEntry struct {
	Date          string `json:"date"`
	Title         string `json:"title"`
	Copyright     string `json:"copyright"`
	CopyrightLink string `json:"copyrightlink"`
	Quiz          string `json:"quiz"`
	Hsh           string `json:"hsh"`
	URLBase       string `json:"urlbase"`
}

// Year returns the partition year encoded in Date
func (e FeedEntry) Year() string {
	if len(e.Date) < 4 {
		return ""
	}
	return e.Date[:4]
}

// YearArchive is the content of one {year}.json partition
type YearArchive struct {
	Year      int         `json:"year"`
	Total     int         `json:"total"`
	UpdatedAt string      `json:"updatedAt,omitempty"`
	Items     []FeedEntry `json:"items"`
}

type ArchiveYear struct {
	Year  int    `json:"year"`
	Count int    `json:"count"`
	File  string `json:"file"`
}

// ArchiveIndex is the feed-wide index.json
type ArchiveIndex struct {
	GeneratedAt string        `json:"generatedAt"`
	Series      string        `json:"series"`
	SeriesName  string        `json:"seriesName,omitempty"`
	Total       int           `json:"total"`
	Years       []ArchiveYear `json:"years"`
}

// LatestWindow is latest.json, the most recent entries across all years
type LatestWindow struct {
	GeneratedAt string      `json:"generatedAt"`
	Total       int         `json:"total"`
	Items       []FeedEntry `json:"items"`
}
