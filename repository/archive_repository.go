package repository

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
)

const (
	archiveIndexFile  = "index.json"
	archiveLatestFile = "latest.json"
)

var yearFilePattern = regexp.MustCompile(`^20\d{2}\.json$`)

// ArchiveRepository reads and writes the feed archive files under bing/meta
type ArchiveRepository struct {
	Store media.Store
}

// NewArchiveRepository creates a new instance of ArchiveRepository
func NewArchiveRepository(store media.Store) *ArchiveRepository {
	return &ArchiveRepository{Store: store}
}

// GetYear loads {year}.json. returns (nil, nil) if the partition does not exist yet
func (r *ArchiveRepository) GetYear(year string) (*models.YearArchive, error) {
	var archive models.YearArchive
	err := media.ReadJSON(r.Store, media.AssetTypeFeed, year+".json", &archive)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load archive year %s: %w", year, err)
	}
	return &archive, nil
}

// SaveYear rewrites {year}.json
func (r *ArchiveRepository) SaveYear(archive *models.YearArchive) error {
	filename := fmt.Sprintf("%d.json", archive.Year)
	if _, err := media.WriteJSON(r.Store, media.AssetTypeFeed, "", filename, archive); err != nil {
		return fmt.Errorf("failed to save archive year %d: %w", archive.Year, err)
	}
	return nil
}

// ListYearFiles returns the year partition file names, sorted ascending
func (r *ArchiveRepository) ListYearFiles() ([]string, error) {
	names, err := r.Store.List(media.AssetTypeFeed, "")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list archive years: %w", err)
	}

	var years []string
	for _, name := range names {
		if yearFilePattern.MatchString(name) {
			years = append(years, name)
		}
	}
	sort.Strings(years)
	return years, nil
}

func (r *ArchiveRepository) SaveIndex(index *models.ArchiveIndex) error {
	if _, err := media.WriteJSON(r.Store, media.AssetTypeFeed, "", archiveIndexFile, index); err != nil {
		return fmt.Errorf("failed to save archive index: %w", err)
	}
	return nil
}

func (r *ArchiveRepository) SaveLatest(latest *models.LatestWindow) error {
	if _, err := media.WriteJSON(r.Store, media.AssetTypeFeed, "", archiveLatestFile, latest); err != nil {
		return fmt.Errorf("failed to save latest window: %w", err)
	}
	return nil
}
