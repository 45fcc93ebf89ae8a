package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
)

type existingStats struct {
	Total struct {
		Bing int `json:"bing"`
	} `json:"total"`
	Releases json.RawMessage `json:"releases"`
}

// UpdateStats rewrites the stats file with current series totals. the
// releases history and the bing total are carried over from the existing file
func UpdateStats(store media.Store, statsFile, tag, lastUpdated string, summaries []SeriesSummary) error {
	var prev existingStats
	err := media.ReadJSON(store, media.AssetTypeRoot, statsFile, &prev)
	if err != nil && !isNotExist(err) {
		log.Printf("publish: Warning - could not parse existing %s, rewriting: %v", statsFile, err)
		prev = existingStats{}
	}

	stats := models.Stats{
		LastUpdated: lastUpdated,
		CDNTag:      tag,
		Series:      make(map[string]models.SeriesStats, len(summaries)),
		Releases:    prev.Releases,
	}
	for _, summary := range summaries {
		categories := summary.Categories
		if categories == nil {
			categories = []string{}
		}
		stats.Series[summary.Series] = models.SeriesStats{Count: summary.Count, Categories: categories}
	}
	stats.Total = models.StatsTotals{
		Desktop: stats.Series["desktop"].Count,
		Mobile:  stats.Series["mobile"].Count,
		Avatar:  stats.Series["avatar"].Count,
		Bing:    prev.Total.Bing,
	}
	if len(bytes.TrimSpace(stats.Releases)) == 0 || bytes.Equal(bytes.TrimSpace(stats.Releases), []byte("null")) {
		stats.Releases = json.RawMessage("[]")
	}

	if _, err := media.WriteJSON(store, media.AssetTypeRoot, "", statsFile, &stats); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	log.Printf("publish: Wrote %s", statsFile)
	return nil
}
