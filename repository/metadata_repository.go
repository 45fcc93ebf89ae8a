package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/utils"
)

// MetadataRepository persists one MetadataDocument per series as
// metadata/{series}.json
type MetadataRepository struct {
	Store media.Store
	Now   func() time.Time
}

// NewMetadataRepository creates a new instance of MetadataRepository
func NewMetadataRepository(store media.Store) *MetadataRepository {
	return &MetadataRepository{Store: store, Now: time.Now}
}

func documentFile(series string) string {
	return series + ".json"
}

// NewDocument returns an empty store for series
func (r *MetadataRepository) NewDocument(series string) *models.MetadataDocument {
	return &models.MetadataDocument{
		Version:     models.MetadataVersion,
		Series:      series,
		LastUpdated: utils.ISOTime(r.Now()),
		Count:       0,
		Images:      *models.NewImageSet(),
	}
}

// Exists reports whether the metadata directory is present
func (r *MetadataRepository) Exists() bool {
	dir, err := r.Store.GetFullPath(media.AssetTypeMetadata, "")
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Load reads the document for series. a missing or unparsable file yields a
// fresh empty document; the parse failure is logged, not returned
func (r *MetadataRepository) Load(series string) (*models.MetadataDocument, error) {
	var doc models.MetadataDocument
	err := media.ReadJSON(r.Store, media.AssetTypeMetadata, documentFile(series), &doc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("repository: No metadata for series %s yet, starting empty", series)
			return r.NewDocument(series), nil
		}
		log.Printf("repository: Warning - could not parse metadata for series %s, starting empty: %v", series, err)
		return r.NewDocument(series), nil
	}

	if doc.Series == "" {
		doc.Series = series
	}
	if doc.Version == 0 {
		doc.Version = models.MetadataVersion
	}
	return &doc, nil
}

// Save stamps lastUpdated, recomputes count and rewrites the whole document
func (r *MetadataRepository) Save(doc *models.MetadataDocument) error {
	if doc == nil || doc.Series == "" {
		return fmt.Errorf("failed to save metadata: document has no series")
	}
	doc.Version = models.MetadataVersion
	doc.Count = doc.Images.Len()
	doc.LastUpdated = utils.ISOTime(r.Now())

	if _, err := media.WriteJSON(r.Store, media.AssetTypeMetadata, "", documentFile(doc.Series), doc); err != nil {
		return fmt.Errorf("failed to save metadata for series %s: %w", doc.Series, err)
	}
	log.Printf("repository: Saved %s.json (%d images)", doc.Series, doc.Count)
	return nil
}
