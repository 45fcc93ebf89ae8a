package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/camden-git/wallpapersync/config"
	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/utils"
	"github.com/go-playground/validator/v10"
)

// SeriesDocuments holds the loaded record store of every configured series
type SeriesDocuments map[string]*models.MetadataDocument

// Reconciler merges batch entries and ledger lines into loaded documents
type Reconciler struct {
	Store  media.Store
	Prober media.Prober
	Series []config.Series
	Tag    string
	Now    func() time.Time

	validate *validator.Validate
}

// NewReconciler creates a reconciler stamping new records with tag
func NewReconciler(store media.Store, prober media.Prober, series []config.Series, tag string) *Reconciler {
	return &Reconciler{
		Store:    store,
		Prober:   prober,
		Series:   series,
		Tag:      tag,
		Now:      time.Now,
		validate: validator.New(),
	}
}

func (r *Reconciler) seriesByID(id string) (config.Series, bool) {
	for _, s := range r.Series {
		if s.ID == id {
			return s, true
		}
	}
	return config.Series{}, false
}

// inspect probes the asset at the root-relative key
func (r *Reconciler) inspect(key string) (*models.Resolution, int64) {
	fullPath, err := r.Store.GetFullPath(media.AssetTypeRoot, key)
	if err != nil {
		log.Printf("reconcile: Warning - cannot resolve %s: %v", key, err)
		return nil, 0
	}
	return media.Inspect(r.Prober, fullPath)
}

// ValidateBatch checks every entry before anything is applied
func (r *Reconciler) ValidateBatch(batch *models.PendingBatch) error {
	if r.validate == nil {
		r.validate = validator.New()
	}
	if err := r.validate.Struct(batch); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}
	return nil
}

// ApplyBatch merges one batch into docs and returns the number of records
// created or updated. the batch is validated as a whole first; an invalid
// batch changes nothing
func (r *Reconciler) ApplyBatch(docs SeriesDocuments, batch *models.PendingBatch) (int, error) {
	if err := r.ValidateBatch(batch); err != nil {
		return 0, err
	}

	processed := 0
	for i := range batch.Images {
		entry := &batch.Images[i]
		doc, ok := docs[entry.Series]
		if !ok {
			log.Printf("reconcile: Warning - unknown series '%s' for %s, skipping", entry.Series, entry.RelativePath)
			continue
		}

		key := entry.RelativePath
		existing, found := doc.Images.Get(key)
		if !found {
			doc.Images.Put(key, r.newRecordFromEntry(entry))
			processed++
			log.Printf("reconcile: + %s", key)
			continue
		}

		if ShouldMergeAnnotation(existing.AI, entry.AI) {
			existing.AI = MergeAnnotation(existing.AI, entry.AI)
			processed++
			log.Printf("reconcile: ~ %s (merged annotation)", key)
		} else {
			log.Printf("reconcile: skip %s (exists, annotation not superseded)", key)
		}
	}
	return processed, nil
}

func (r *Reconciler) newRecordFromEntry(entry *models.PendingImage) *models.ImageRecord {
	resolution := entry.Resolution
	if resolution != nil && (resolution.Width <= 0 || resolution.Height <= 0) {
		resolution = nil
	}
	if resolution != nil && resolution.Label == "" {
		resolution = media.NewResolution(media.Dimensions{Width: resolution.Width, Height: resolution.Height})
	}
	size := entry.Size

	if resolution == nil || size == 0 {
		probed, probedSize := r.inspect(entry.RelativePath)
		if resolution == nil {
			resolution = probed
		}
		if size == 0 {
			size = probedSize
		}
	}

	filename := entry.Filename
	if filename == "" {
		filename = path.Base(entry.RelativePath)
	}

	format := strings.ToLower(entry.Format)
	if format == "" {
		format = models.DefaultFormat
	}

	createdAt := entry.CreatedAt
	if createdAt == "" {
		createdAt = utils.ISOTime(r.Now())
	}

	return &models.ImageRecord{
		Category:    entry.Category,
		Subcategory: entry.Subcategory,
		Filename:    filename,
		CreatedAt:   createdAt,
		CDNTag:      r.Tag,
		Size:        size,
		Format:      format,
		Resolution:  resolution,
		AI:          NormalizeAnnotation(entry.AI),
	}
}

// SyncLedger creates records for ledger lines whose asset is not yet known.
// an existing record is never touched
func (r *Reconciler) SyncLedger(docs SeriesDocuments, entries []models.LedgerEntry) int {
	synced := 0
	for _, entry := range entries {
		series, ok := r.seriesByID(entry.Series)
		if !ok {
			continue
		}
		doc, ok := docs[entry.Series]
		if !ok {
			continue
		}

		key := series.WallpaperDir + "/" + entry.RelativePath
		if doc.Images.Has(key) {
			continue
		}

		doc.Images.Put(key, r.newRecordFromLedger(key, entry))
		synced++
		log.Printf("reconcile: + [%s] %s (tag: %s)", entry.Series, entry.RelativePath, entry.CDNTag)
	}
	return synced
}

func (r *Reconciler) newRecordFromLedger(key string, entry models.LedgerEntry) *models.ImageRecord {
	segments := strings.Split(entry.RelativePath, "/")
	filename := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	category := models.UncategorizedCategory
	if len(dirs) > 0 && dirs[0] != "" {
		category = dirs[0]
	}
	subcategory := ""
	if len(dirs) > 1 && dirs[1] != models.GenericSubcategoryValue {
		subcategory = dirs[1]
	}

	tag := entry.CDNTag
	if tag == "" {
		tag = r.Tag
	}

	resolution, size := r.inspect(key)

	return &models.ImageRecord{
		Category:    category,
		Subcategory: subcategory,
		Filename:    filename,
		CreatedAt:   utils.ISOTime(time.Unix(entry.Timestamp, 0)),
		CDNTag:      tag,
		Size:        size,
		Format:      utils.FormatOf(filename, models.DefaultFormat),
		Resolution:  resolution,
		AI: &models.Annotation{
			Keywords: ExtractKeywords(filename),
			Model:    models.ModelFilenameInference,
		},
	}
}

// BatchResult is the outcome of one pending batch file
type BatchResult struct {
	Name      string
	Entries   int
	Processed int
	Err       error
}

// ReconcileService drives the pending directory through a Reconciler
type ReconcileService struct {
	Store      media.Store
	Reconciler *Reconciler
}

func NewReconcileService(store media.Store, reconciler *Reconciler) *ReconcileService {
	return &ReconcileService{Store: store, Reconciler: reconciler}
}

// ListPending returns pending batch file names in processing order
func (s *ReconcileService) ListPending() ([]string, error) {
	names, err := s.Store.List(media.AssetTypePending, "")
	if err != nil {
		return nil, err
	}
	var batches []string
	for _, name := range names {
		if strings.HasSuffix(name, ".json") {
			batches = append(batches, name)
		}
	}
	return batches, nil
}

func (s *ReconcileService) readBatch(name string) (*models.PendingBatch, error) {
	rc, _, err := s.Store.Get(media.AssetTypePending, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch %s: %w", name, err)
	}
	var batch models.PendingBatch
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch %s: %w", name, err)
	}
	return &batch, nil
}

// ProcessPending applies every pending batch in file-name order. nothing is
// removed here; the caller deletes applied batches with RemoveApplied once the
// merged documents are durable
func (s *ReconcileService) ProcessPending(docs SeriesDocuments) ([]BatchResult, int, error) {
	names, err := s.ListPending()
	if err != nil {
		if isNotExist(err) {
			log.Printf("reconcile: Pending directory does not exist, skipping")
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to list pending batches: %w", err)
	}
	if len(names) == 0 {
		log.Printf("reconcile: No pending batches")
		return nil, 0, nil
	}
	log.Printf("reconcile: Found %d pending batches", len(names))

	results := make([]BatchResult, 0, len(names))
	total := 0
	for _, name := range names {
		log.Printf("reconcile: Processing %s", name)
		result := BatchResult{Name: name}

		batch, err := s.readBatch(name)
		if err != nil {
			result.Err = err
			log.Printf("reconcile: Error - %v", err)
			results = append(results, result)
			continue
		}
		result.Entries = len(batch.Images)

		processed, err := s.Reconciler.ApplyBatch(docs, batch)
		if err != nil {
			result.Err = err
			log.Printf("reconcile: Error - batch %s not applied: %v", name, err)
			results = append(results, result)
			continue
		}
		result.Processed = processed
		total += processed
		results = append(results, result)
	}

	return results, total, nil
}

// RemoveApplied deletes the batches that applied cleanly. failed batches stay
// in place for the next run
func (s *ReconcileService) RemoveApplied(results []BatchResult) int {
	removed := 0
	for _, result := range results {
		if result.Err != nil {
			continue
		}
		if err := s.Store.Delete(media.AssetTypePending, result.Name); err != nil {
			log.Printf("reconcile: Warning - failed to remove processed batch %s: %v", result.Name, err)
			continue
		}
		removed++
	}
	return removed
}
