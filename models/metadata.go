package models

// MetadataVersion is the on-disk layout version of a series document
const MetadataVersion = 2

// MetadataDocument is the durable per-series record store
type MetadataDocument struct {
	Version     int      `json:"version"`
	Series      string   `json:"series"`
	LastUpdated string   `json:"lastUpdated"`
	Count       int      `json:"count"`
	Images      ImageSet `json:"images"`
}
