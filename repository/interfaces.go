package repository

import (
	"github.com/camden-git/wallpapersync/models"
)

// MetadataRepositoryInterface defines the methods for per-series record stores
type MetadataRepositoryInterface interface {
	Load(series string) (*models.MetadataDocument, error)
	Save(doc *models.MetadataDocument) error
	Exists() bool
}

// ArchiveRepositoryInterface defines the methods for the year-partitioned feed archive
type ArchiveRepositoryInterface interface {
	GetYear(year string) (*models.YearArchive, error)
	SaveYear(archive *models.YearArchive) error
	ListYearFiles() ([]string, error)
	SaveIndex(index *models.ArchiveIndex) error
	SaveLatest(latest *models.LatestWindow) error
}
