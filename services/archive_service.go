package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/camden-git/wallpapersync/feed"
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/repository"
	"github.com/camden-git/wallpapersync/utils"
)

const (
	FeedSeriesID   = "bing"
	FeedSeriesName = "Bing 每日"

	latestWindowSize = 7
	// the feed API only serves this many days back
	feedLookbackDays = 7
	// upgrade attempts are limited to the head of an imported history
	upgradeCandidates = 10

	feedDateLayout  = "20060102"
	entryDateLayout = "2006-01-02"
)

// FeedSource returns n feed images starting idx days back
type FeedSource interface {
	Fetch(ctx context.Context, idx, n int) ([]feed.Image, error)
}

// ArchiveService maintains the year-partitioned feed archive
type ArchiveService struct {
	Repo   repository.ArchiveRepositoryInterface
	Source FeedSource
	Now    func() time.Time
}

func NewArchiveService(repo repository.ArchiveRepositoryInterface, source FeedSource) *ArchiveService {
	return &ArchiveService{Repo: repo, Source: source, Now: time.Now}
}

// ShiftFeedDate converts the feed's reference-timezone startdate (YYYYMMDD)
// into the local calendar key (YYYY-MM-DD), one day later
func ShiftFeedDate(startdate string) (string, error) {
	t, err := time.Parse(feedDateLayout, startdate)
	if err != nil {
		return "", fmt.Errorf("bad feed date '%s': %w", startdate, err)
	}
	return t.AddDate(0, 0, 1).Format(entryDateLayout), nil
}

// entryFromImage maps a feed image to an archive entry keyed by date
func entryFromImage(img feed.Image, date string) models.FeedEntry {
	return models.FeedEntry{
		Date:          date,
		Title:         img.Title,
		Copyright:     img.Copyright,
		CopyrightLink: img.CopyrightLink,
		Quiz:          img.Quiz,
		Hsh:           img.Hsh,
		URLBase:       img.URLBase,
	}
}

func sortEntriesDesc(items []models.FeedEntry) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
}

// Upsert replaces or appends entry in its year partition. returns true when
// the date was not present before
func (s *ArchiveService) Upsert(entry models.FeedEntry) (bool, error) {
	year := entry.Year()
	yearNum, err := strconv.Atoi(year)
	if err != nil {
		return false, fmt.Errorf("bad entry date '%s'", entry.Date)
	}

	archive, err := s.Repo.GetYear(year)
	if err != nil {
		return false, err
	}
	now := utils.ISOTime(s.Now())

	isNew := true
	if archive == nil {
		archive = &models.YearArchive{Year: yearNum, Items: []models.FeedEntry{entry}}
	} else {
		replaced := false
		for i := range archive.Items {
			if archive.Items[i].Date == entry.Date {
				archive.Items[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			archive.Items = append(archive.Items, entry)
		}
		isNew = !replaced
		sortEntriesDesc(archive.Items)
	}
	archive.Total = len(archive.Items)
	archive.UpdatedAt = now

	if err := s.Repo.SaveYear(archive); err != nil {
		return false, err
	}
	return isNew, nil
}

func (s *ArchiveService) loadAllYears() ([]*models.YearArchive, error) {
	files, err := s.Repo.ListYearFiles()
	if err != nil {
		return nil, err
	}
	archives := make([]*models.YearArchive, 0, len(files))
	for _, file := range files {
		archive, err := s.Repo.GetYear(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}
		if archive != nil {
			archives = append(archives, archive)
		}
	}
	return archives, nil
}

// RebuildIndex rescans all year partitions into index.json
func (s *ArchiveService) RebuildIndex() (*models.ArchiveIndex, error) {
	archives, err := s.loadAllYears()
	if err != nil {
		return nil, err
	}

	index := &models.ArchiveIndex{
		GeneratedAt: utils.ISOTime(s.Now()),
		Series:      FeedSeriesID,
		SeriesName:  FeedSeriesName,
		Years:       make([]models.ArchiveYear, 0, len(archives)),
	}
	for _, archive := range archives {
		index.Years = append(index.Years, models.ArchiveYear{
			Year:  archive.Year,
			Count: archive.Total,
			File:  fmt.Sprintf("%d.json", archive.Year),
		})
		index.Total += archive.Total
	}
	sort.SliceStable(index.Years, func(i, j int) bool {
		return index.Years[i].Year > index.Years[j].Year
	})

	if err := s.Repo.SaveIndex(index); err != nil {
		return nil, err
	}
	log.Printf("archive: Rebuilt index.json (total: %d)", index.Total)
	return index, nil
}

// RebuildLatest writes the most recent entries across every year
func (s *ArchiveService) RebuildLatest() (*models.LatestWindow, error) {
	archives, err := s.loadAllYears()
	if err != nil {
		return nil, err
	}

	var all []models.FeedEntry
	for _, archive := range archives {
		all = append(all, archive.Items...)
	}
	sortEntriesDesc(all)
	if len(all) > latestWindowSize {
		all = all[:latestWindowSize]
	}
	if all == nil {
		all = []models.FeedEntry{}
	}

	latest := &models.LatestWindow{
		GeneratedAt: utils.ISOTime(s.Now()),
		Total:       len(all),
		Items:       all,
	}
	if err := s.Repo.SaveLatest(latest); err != nil {
		return nil, err
	}
	log.Printf("archive: Rebuilt latest.json (%d items)", latest.Total)
	return latest, nil
}

// Rebuild refreshes both derived files
func (s *ArchiveService) Rebuild() error {
	if _, err := s.RebuildIndex(); err != nil {
		return err
	}
	_, err := s.RebuildLatest()
	return err
}

// SyncResult counts what a sync did
type SyncResult struct {
	Fetched int
	Added   int
	Updated int
}

// Sync pulls the most recent days from the feed into the archive
func (s *ArchiveService) Sync(ctx context.Context, days int) (*SyncResult, error) {
	if days <= 0 {
		days = 1
	}
	images, err := s.Source.Fetch(ctx, 0, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoFeedData
	}

	result := &SyncResult{Fetched: len(images)}
	for idx, img := range images {
		date, err := ShiftFeedDate(img.StartDate)
		if err != nil {
			log.Printf("archive: Warning - skipping idx=%d: %v", idx, err)
			continue
		}
		log.Printf("archive: %s (API: %s, idx=%d) - %s", date, img.StartDate, idx, img.Title)

		isNew, err := s.Upsert(entryFromImage(img, date))
		if err != nil {
			return result, err
		}
		if isNew {
			result.Added++
		} else {
			result.Updated++
		}
	}

	if err := s.Rebuild(); err != nil {
		return result, err
	}
	return result, nil
}

func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// tryUpgrade looks for the feed's own record of date near the expected idx.
// any failure leaves the caller with its lower-fidelity entry
func (s *ArchiveService) tryUpgrade(ctx context.Context, date time.Time, diff int) (*feed.Image, error) {
	for idx := diff - 1; idx <= diff+1; idx++ {
		if idx < 0 || idx > feedLookbackDays {
			continue
		}
		images, err := s.Source.Fetch(ctx, idx, 1)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			continue
		}
		apiDate, err := time.Parse(feedDateLayout, images[0].StartDate)
		if err != nil {
			continue
		}
		gap := date.Sub(apiDate).Hours() / 24
		if gap < 0 {
			gap = -gap
		}
		if gap <= 1 {
			return &images[0], nil
		}
	}
	return nil, nil
}

// ImportResult counts what a history import did
type ImportResult struct {
	Parsed   int
	Upgraded int
	Years    int
}

// ImportHistory loads a markdown history dump, upgrades the most recent
// entries against the feed when possible and rewrites the year partitions
func (s *ArchiveService) ImportHistory(ctx context.Context, r io.Reader) (*ImportResult, error) {
	entries, err := feed.ParseHistory(r)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Parsed: len(entries)}
	if len(entries) == 0 {
		return result, nil
	}

	now := s.Now().UTC()
	for i := 0; i < len(entries) && i < upgradeCandidates; i++ {
		date, err := time.Parse(entryDateLayout, entries[i].Date)
		if err != nil {
			continue
		}
		diff := daysBetween(now, date)
		if diff > feedLookbackDays {
			break
		}

		img, err := s.tryUpgrade(ctx, date, diff)
		if err != nil {
			log.Printf("archive: Warning - could not upgrade %s: %v", entries[i].Date, err)
			continue
		}
		if img == nil {
			continue
		}
		entries[i] = entryFromImage(*img, entries[i].Date)
		result.Upgraded++
		log.Printf("archive: Upgraded %s: %s", entries[i].Date, entries[i].Title)
	}

	byYear := make(map[string][]models.FeedEntry)
	var years []string
	for _, entry := range entries {
		year := entry.Year()
		if _, ok := byYear[year]; !ok {
			years = append(years, year)
		}
		byYear[year] = append(byYear[year], entry)
	}

	stamp := utils.ISOTime(s.Now())
	for _, year := range years {
		yearNum, err := strconv.Atoi(year)
		if err != nil {
			continue
		}
		items := byYear[year]
		sortEntriesDesc(items)
		if err := s.Repo.SaveYear(&models.YearArchive{
			Year:      yearNum,
			Total:     len(items),
			UpdatedAt: stamp,
			Items:     items,
		}); err != nil {
			return result, err
		}
		result.Years++
		log.Printf("archive: Wrote %s.json (%d items)", year, len(items))
	}

	if err := s.Rebuild(); err != nil {
		return result, err
	}
	return result, nil
}
