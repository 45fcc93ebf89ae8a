package models

import "encoding/json"

// Envelope schema numbers
const (
	SchemaLegacy      = 1 // single flat list per series
	SchemaPartitioned = 2 // category index + per-category files
)

// PublicWallpaper is the client-facing view of one record
type PublicWallpaper struct {
	ID            string      `json:"id"`
	Filename      string      `json:"filename"`
	Category      string      `json:"category"`
	Path          string      `json:"path"`
	ThumbnailPath string      `json:"thumbnailPath"`
	Size          int64       `json:"size"`
	Format        string      `json:"format"`
	CreatedAt     string      `json:"createdAt"`
	SHA           string      `json:"sha"`
	CDNTag        string      `json:"cdnTag"`
	Keywords      []string    `json:"keywords"`
	Description   string      `json:"description"`
	DisplayTitle  string      `json:"displayTitle"`
	Tags          []string    `json:"tags"`
	Subcategory   string      `json:"subcategory,omitempty"`
	PreviewPath   string      `json:"previewPath,omitempty"`
	Resolution    *Resolution `json:"resolution,omitempty"`
}

type SubcategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryIndexEntry is one row of the per-series category index
type CategoryIndexEntry struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Count         int                `json:"count"`
	Thumbnail     string             `json:"thumbnail"`
	File          string             `json:"file"`
	Subcategories []SubcategoryCount `json:"subcategories,omitempty"`
}

// Envelope wraps an encoded blob for publication
type Envelope struct {
	GeneratedAt   string `json:"generatedAt"`
	Series        string `json:"series"`
	SeriesName    string `json:"seriesName,omitempty"`
	Category      string `json:"category,omitempty"`
	Total         int    `json:"total"`
	CategoryCount *int   `json:"categoryCount,omitempty"`
	Schema        int    `json:"schema"`
	Env           string `json:"env,omitempty"`
	Blob          string `json:"blob"`
}

type SeriesStats struct {
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
}

type StatsTotals struct {
	Desktop int `json:"desktop"`
	Mobile  int `json:"mobile"`
	Avatar  int `json:"avatar"`
	Bing    int `json:"bing"`
}

// Stats is the aggregate stats file. Releases is owned by another tool and
// is carried through byte-for-byte.
type Stats struct {
	LastUpdated string                 `json:"lastUpdated"`
	CDNTag      string                 `json:"cdnTag"`
	Series      map[string]SeriesStats `json:"series"`
	Total       StatsTotals            `json:"total"`
	Releases    json.RawMessage        `json:"releases"`
}
