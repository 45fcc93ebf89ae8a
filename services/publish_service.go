package services

import (
	"bytes"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/camden-git/wallpapersync/codec"
	"github.com/camden-git/wallpapersync/config"
	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/utils"
)

const (
	seriesIndexFile      = "index.json"
	reservedCategoryFile = "index_.json"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// PublishService derives the public data set from record stores
type PublishService struct {
	Store      media.Store
	Series     []config.Series
	Tag        string
	CDNBaseURL string
	Env        string
	StatsFile  string
	Now        func() time.Time
}

func NewPublishService(store media.Store, cfg config.Config, tag string) *PublishService {
	return &PublishService{
		Store:      store,
		Series:     cfg.Series,
		Tag:        tag,
		CDNBaseURL: cfg.CDNBaseURL,
		Env:        cfg.PublishEnv,
		StatsFile:  cfg.StatsFile,
		Now:        time.Now,
	}
}

// SeriesSummary is what a publish of one series contributes to the stats file
type SeriesSummary struct {
	Series     string
	Count      int
	Categories []string
}

// CategoryGroup is one category with its items, newest first
type CategoryGroup struct {
	Entry models.CategoryIndexEntry
	Items []models.PublicWallpaper
}

func (s *PublishService) seriesByID(id string) (config.Series, error) {
	for _, def := range s.Series {
		if def.ID == id {
			return def, nil
		}
	}
	return config.Series{}, fmt.Errorf("series '%s' is not configured", id)
}

// BuildWallpapers flattens a document into public items, in insertion order,
// then sorts them newest first
func BuildWallpapers(doc *models.MetadataDocument, series config.Series, tag, cdnBaseURL string) []models.PublicWallpaper {
	wallpapers := make([]models.PublicWallpaper, 0, doc.Images.Len())
	index := 0
	doc.Images.Each(func(key string, rec *models.ImageRecord) {
		index++
		wallpapers = append(wallpapers, toPublic(fmt.Sprintf("%s-%d", doc.Series, index), key, rec, series, tag, cdnBaseURL))
	})

	sort.SliceStable(wallpapers, func(i, j int) bool {
		return parseCreatedAt(wallpapers[i].CreatedAt).After(parseCreatedAt(wallpapers[j].CreatedAt))
	})
	return wallpapers
}

func parseCreatedAt(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// subdirOf returns the directories between the series wallpaper dir and the file
func subdirOf(key string, series config.Series) []string {
	segments := strings.Split(key, "/")
	dirs := segments[:len(segments)-1]

	prefix := strings.Split(strings.Trim(series.WallpaperDir, "/"), "/")
	if len(dirs) >= len(prefix) && strings.Join(dirs[:len(prefix)], "/") == strings.Join(prefix, "/") {
		return dirs[len(prefix):]
	}
	if len(dirs) >= 2 {
		return dirs[2:]
	}
	return nil
}

func toPublic(id, key string, rec *models.ImageRecord, series config.Series, tag, cdnBaseURL string) models.PublicWallpaper {
	filename := key[strings.LastIndex(key, "/")+1:]
	derived := append(subdirOf(key, series), utils.StripExtension(filename)+".webp")
	derivedPath := strings.Join(derived, "/")

	category := rec.Category
	if category == "" {
		category = models.UncategorizedCategory
	}
	format := rec.Format
	if format == "" {
		format = models.DefaultFormat
	}
	cdnTag := rec.CDNTag
	if cdnTag == "" {
		cdnTag = tag
	}

	ai := rec.AI
	if ai == nil {
		ai = models.DefaultAnnotation()
	}
	keywords := ai.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	tags := []string{category}
	if rec.Subcategory != "" {
		tags = append(tags, rec.Subcategory)
	}
	for _, kw := range keywords {
		if !contains(tags, kw) {
			tags = append(tags, kw)
		}
	}

	wp := models.PublicWallpaper{
		ID:            id,
		Filename:      filename,
		Category:      category,
		Path:          utils.BuildAssetURL(cdnBaseURL, "", key),
		ThumbnailPath: utils.BuildAssetURL(cdnBaseURL, series.ThumbnailDir, derivedPath),
		Size:          rec.Size,
		Format:        strings.ToUpper(format),
		CreatedAt:     rec.CreatedAt,
		SHA:           "",
		CDNTag:        cdnTag,
		Keywords:      keywords,
		Description:   ai.Description,
		DisplayTitle:  ai.DisplayTitle,
		Tags:          tags,
		Subcategory:   rec.Subcategory,
		Resolution:    rec.Resolution,
	}
	if series.HasPreview {
		wp.PreviewPath = utils.BuildAssetURL(cdnBaseURL, series.PreviewDir, derivedPath)
	}
	return wp
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// CategoryID is the url-friendly id of a category name
func CategoryID(name string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(name, "-"))
}

// CategoryFile is the per-category blob file name. a category whose file
// would shadow the series index gets a trailing underscore
func CategoryFile(name string) string {
	file := strings.ReplaceAll(name, "/", "_") + ".json"
	if strings.EqualFold(file, seriesIndexFile) {
		log.Printf("publish: Warning - category %q collides with %s, writing it to %s", name, seriesIndexFile, reservedCategoryFile)
		return reservedCategoryFile
	}
	return file
}

// GroupByCategory groups sorted wallpapers by category, largest category first
func GroupByCategory(wallpapers []models.PublicWallpaper) []CategoryGroup {
	var groups []*CategoryGroup
	byName := make(map[string]*CategoryGroup)
	for _, wp := range wallpapers {
		group, ok := byName[wp.Category]
		if !ok {
			group = &CategoryGroup{Entry: models.CategoryIndexEntry{Name: wp.Category}}
			byName[wp.Category] = group
			groups = append(groups, group)
		}
		group.Items = append(group.Items, wp)
	}

	out := make([]CategoryGroup, 0, len(groups))
	for _, group := range groups {
		first := group.Items[0]
		thumbnail := first.ThumbnailPath
		if thumbnail == "" {
			thumbnail = first.Path
		}
		group.Entry.ID = CategoryID(group.Entry.Name)
		group.Entry.Count = len(group.Items)
		group.Entry.Thumbnail = thumbnail
		group.Entry.File = CategoryFile(group.Entry.Name)
		group.Entry.Subcategories = countSubcategories(group.Items)
		out = append(out, *group)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Entry.Count > out[j].Entry.Count
	})
	return out
}

func countSubcategories(items []models.PublicWallpaper) []models.SubcategoryCount {
	var counts []models.SubcategoryCount
	pos := make(map[string]int)
	for _, item := range items {
		if item.Subcategory == "" {
			continue
		}
		if i, ok := pos[item.Subcategory]; ok {
			counts[i].Count++
			continue
		}
		pos[item.Subcategory] = len(counts)
		counts = append(counts, models.SubcategoryCount{Name: item.Subcategory, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func (s *PublishService) writeEnvelope(dir, filename string, env *models.Envelope) error {
	data, err := utils.MarshalDocument(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope %s: %w", filename, err)
	}
	if _, err := s.Store.Save(media.AssetTypeData, dir, filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// Publish rewrites the index, per-category and legacy files of one series
func (s *PublishService) Publish(doc *models.MetadataDocument) (*SeriesSummary, error) {
	series, err := s.seriesByID(doc.Series)
	if err != nil {
		return nil, err
	}

	generatedAt := utils.ISOTime(s.Now())
	wallpapers := BuildWallpapers(doc, series, s.Tag, s.CDNBaseURL)
	groups := GroupByCategory(wallpapers)

	entries := make([]models.CategoryIndexEntry, len(groups))
	names := make([]string, len(groups))
	keep := map[string]bool{seriesIndexFile: true}
	for i, group := range groups {
		entries[i] = group.Entry
		names[i] = group.Entry.Name
		keep[group.Entry.File] = true
	}

	indexBlob, err := codec.Encode(entries)
	if err != nil {
		return nil, err
	}
	categoryCount := len(entries)
	if err := s.writeEnvelope(doc.Series, seriesIndexFile, &models.Envelope{
		GeneratedAt:   generatedAt,
		Series:        doc.Series,
		SeriesName:    series.Name,
		Total:         len(wallpapers),
		CategoryCount: &categoryCount,
		Schema:        models.SchemaPartitioned,
		Env:           s.Env,
		Blob:          indexBlob,
	}); err != nil {
		return nil, err
	}
	log.Printf("publish: Wrote %s/%s", doc.Series, seriesIndexFile)

	for _, group := range groups {
		blob, err := codec.Encode(group.Items)
		if err != nil {
			return nil, err
		}
		if err := s.writeEnvelope(doc.Series, group.Entry.File, &models.Envelope{
			GeneratedAt: generatedAt,
			Series:      doc.Series,
			Category:    group.Entry.Name,
			Total:       len(group.Items),
			Schema:      models.SchemaPartitioned,
			Blob:        blob,
		}); err != nil {
			return nil, err
		}
		log.Printf("publish: Wrote %s/%s (%d items)", doc.Series, group.Entry.File, len(group.Items))
	}

	legacyBlob, err := codec.Encode(wallpapers)
	if err != nil {
		return nil, err
	}
	if err := s.writeEnvelope("", doc.Series+".json", &models.Envelope{
		GeneratedAt: generatedAt,
		Series:      doc.Series,
		SeriesName:  series.Name,
		Total:       len(wallpapers),
		Schema:      models.SchemaLegacy,
		Env:         s.Env,
		Blob:        legacyBlob,
	}); err != nil {
		return nil, err
	}
	log.Printf("publish: Wrote %s.json (legacy, %d items)", doc.Series, len(wallpapers))

	s.pruneStale(doc.Series, keep)

	return &SeriesSummary{Series: doc.Series, Count: len(wallpapers), Categories: names}, nil
}

// pruneStale removes category files no longer referenced by the index
func (s *PublishService) pruneStale(series string, keep map[string]bool) {
	names, err := s.Store.List(media.AssetTypeData, series)
	if err != nil {
		log.Printf("publish: Warning - could not list %s for pruning: %v", series, err)
		return
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") || keep[name] {
			continue
		}
		if err := s.Store.Delete(media.AssetTypeData, series+"/"+name); err != nil {
			log.Printf("publish: Warning - failed to prune %s/%s: %v", series, name, err)
			continue
		}
		log.Printf("publish: Pruned stale %s/%s", series, name)
	}
}

// PublishAll publishes every document then refreshes the stats file
func (s *PublishService) PublishAll(docs []*models.MetadataDocument) ([]SeriesSummary, error) {
	summaries := make([]SeriesSummary, 0, len(docs))
	for _, doc := range docs {
		summary, err := s.Publish(doc)
		if err != nil {
			return summaries, fmt.Errorf("failed to publish series %s: %w", doc.Series, err)
		}
		summaries = append(summaries, *summary)
	}

	if err := UpdateStats(s.Store, s.StatsFile, s.Tag, utils.ISOTime(s.Now()), summaries); err != nil {
		return summaries, err
	}
	return summaries, nil
}
