package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/camden-git/wallpapersync/config"
	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/repository"
)

// run kinds recorded in the journal
const (
	RunKindProcess    = "process"
	RunKindPublish    = "publish"
	RunKindFeedSync   = "bing-sync"
	RunKindFeedImport = "bing-import"
)

// RunOptions tune a single reconcile-and-publish run
type RunOptions struct {
	Tag   string
	Force bool
}

// RunReport summarizes a finished run
type RunReport struct {
	Tag             string
	Batches         []BatchResult
	FromBatches     int
	FromLedger      int
	Processed       int
	Published       bool
	Series          []SeriesSummary
	DurationSeconds float64
}

// RunListener is told about every finished run
type RunListener func(kind string, report *RunReport, err error)

// Pipeline wires the record stores, reconciliation and publishing together
type Pipeline struct {
	Config   config.Config
	Store    *media.LocalStorage
	Prober   media.Prober
	Metadata repository.MetadataRepositoryInterface
	Journal  RunJournal
	Listener RunListener
	Now      func() time.Time
}

// NewStore builds the local store for every directory the pipeline touches
func NewStore(cfg config.Config) (*media.LocalStorage, error) {
	return media.NewLocalStorage(cfg.RootDirectory, map[media.AssetType]string{
		media.AssetTypeMetadata: cfg.MetadataSubDir,
		media.AssetTypePending:  cfg.PendingSubDir,
		media.AssetTypeData:     cfg.DataSubDir,
		media.AssetTypeFeed:     cfg.BingMetaSubDir,
	})
}

func NewPipeline(cfg config.Config, store *media.LocalStorage, prober media.Prober, journal RunJournal) *Pipeline {
	return &Pipeline{
		Config:   cfg,
		Store:    store,
		Prober:   prober,
		Metadata: repository.NewMetadataRepository(store),
		Journal:  journal,
		Now:      time.Now,
	}
}

// ResolveTag picks the run tag: explicit value, then the tag file, then a
// millisecond timestamp
func ResolveTag(explicit, tagFile string, now time.Time) string {
	if tag := strings.TrimSpace(explicit); tag != "" {
		return tag
	}
	if tagFile != "" {
		if data, err := os.ReadFile(tagFile); err == nil {
			if tag := strings.TrimSpace(string(data)); tag != "" {
				return tag
			}
		}
	}
	return "v" + strconv.FormatInt(now.UnixMilli(), 10)
}

func (p *Pipeline) loadAll() (SeriesDocuments, []*models.MetadataDocument, error) {
	docs := make(SeriesDocuments, len(p.Config.Series))
	ordered := make([]*models.MetadataDocument, 0, len(p.Config.Series))
	for _, series := range p.Config.Series {
		doc, err := p.Metadata.Load(series.ID)
		if err != nil {
			return nil, nil, err
		}
		docs[series.ID] = doc
		ordered = append(ordered, doc)
		log.Printf("pipeline: Loaded %s (%d images)", series.ID, doc.Images.Len())
	}
	return docs, ordered, nil
}

func (p *Pipeline) readLedger() []models.LedgerEntry {
	rc, _, err := p.Store.Get(media.AssetTypeRoot, p.Config.LedgerFile)
	if err != nil {
		if isNotExist(err) {
			log.Printf("pipeline: %s does not exist, skipping ledger sync", p.Config.LedgerFile)
		} else {
			log.Printf("pipeline: Warning - cannot open ledger: %v", err)
		}
		return nil
	}
	defer rc.Close()

	entries, err := ParseLedger(rc)
	if err != nil {
		log.Printf("pipeline: Warning - ledger read stopped early: %v", err)
	}
	return entries
}

func (p *Pipeline) notify(kind string, report *RunReport, err error) {
	if p.Listener != nil {
		p.Listener(kind, report, err)
	}
}

// Run merges pending batches and the ledger into the record stores, then
// saves and publishes when anything changed or when forced
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (report *RunReport, err error) {
	started := p.Now()
	tag := ResolveTag(opts.Tag, p.Config.TagFile, started)
	report = &RunReport{Tag: tag}

	journal := startJournalRun(p.Journal, RunKindProcess, tag)
	defer func() {
		report.DurationSeconds = p.Now().Sub(started).Seconds()
		journal.finish(report.Processed, err)
		p.notify(RunKindProcess, report, err)
	}()

	if !p.Metadata.Exists() {
		return report, ErrMetadataDirMissing
	}
	log.Printf("pipeline: Using tag %s", tag)

	docs, ordered, err := p.loadAll()
	if err != nil {
		return report, err
	}

	reconciler := NewReconciler(p.Store, p.Prober, p.Config.Series, tag)
	reconciler.Now = p.Now
	reconcileService := NewReconcileService(p.Store, reconciler)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	results, fromBatches, err := reconcileService.ProcessPending(docs)
	if err != nil {
		return report, err
	}
	for _, result := range results {
		journal.batch(result)
	}
	report.Batches = results
	report.FromBatches = fromBatches

	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.FromLedger = reconciler.SyncLedger(docs, p.readLedger())
	report.Processed = report.FromBatches + report.FromLedger
	log.Printf("pipeline: Processed %d images (%d from batches, %d from ledger)", report.Processed, report.FromBatches, report.FromLedger)

	changed := report.Processed > 0 || opts.Force
	if changed {
		for _, doc := range ordered {
			if err := p.Metadata.Save(doc); err != nil {
				return report, err
			}
		}
	}
	// batches are only consumed once their records are on disk
	reconcileService.RemoveApplied(results)

	if changed {
		summaries, err := p.publisher(tag).PublishAll(ordered)
		if err != nil {
			return report, err
		}
		report.Series = summaries
		report.Published = true
	}

	p.writeProcessedCount(report.Processed)
	return report, nil
}

// Publish regenerates the public data set from the stored documents only
func (p *Pipeline) Publish(ctx context.Context, tag string) (report *RunReport, err error) {
	started := p.Now()
	tag = ResolveTag(tag, p.Config.TagFile, started)
	report = &RunReport{Tag: tag}

	journal := startJournalRun(p.Journal, RunKindPublish, tag)
	defer func() {
		report.DurationSeconds = p.Now().Sub(started).Seconds()
		journal.finish(0, err)
		p.notify(RunKindPublish, report, err)
	}()

	if !p.Metadata.Exists() {
		return report, ErrMetadataDirMissing
	}
	_, ordered, err := p.loadAll()
	if err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	summaries, err := p.publisher(tag).PublishAll(ordered)
	if err != nil {
		return report, err
	}
	report.Series = summaries
	report.Published = true
	return report, nil
}

func (p *Pipeline) publisher(tag string) *PublishService {
	publisher := NewPublishService(p.Store, p.Config, tag)
	publisher.Now = p.Now
	return publisher
}

func (p *Pipeline) writeProcessedCount(processed int) {
	if p.Config.ProcessedCountFile == "" {
		return
	}
	if err := os.WriteFile(p.Config.ProcessedCountFile, []byte(strconv.Itoa(processed)), 0644); err != nil {
		log.Printf("pipeline: Warning - failed to write processed count: %v", err)
	}
}

// NewArchive builds the feed archiver over the pipeline store
func (p *Pipeline) NewArchive(source FeedSource) *ArchiveService {
	archive := NewArchiveService(repository.NewArchiveRepository(p.Store), source)
	archive.Now = p.Now
	return archive
}

// SyncFeed runs a feed sync with journaling
func (p *Pipeline) SyncFeed(ctx context.Context, source FeedSource, days int) (result *SyncResult, err error) {
	journal := startJournalRun(p.Journal, RunKindFeedSync, "")
	defer func() {
		processed := 0
		if result != nil {
			processed = result.Added + result.Updated
		}
		journal.finish(processed, err)
		p.notify(RunKindFeedSync, &RunReport{Processed: processed}, err)
	}()
	return p.NewArchive(source).Sync(ctx, days)
}

// ImportFeedHistory imports a markdown history file with journaling
func (p *Pipeline) ImportFeedHistory(ctx context.Context, source FeedSource, markdownPath string) (result *ImportResult, err error) {
	journal := startJournalRun(p.Journal, RunKindFeedImport, "")
	defer func() {
		processed := 0
		if result != nil {
			processed = result.Parsed
		}
		journal.finish(processed, err)
		p.notify(RunKindFeedImport, &RunReport{Processed: processed}, err)
	}()

	data, err := os.ReadFile(markdownPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file '%s': %w", markdownPath, err)
	}
	return p.NewArchive(source).ImportHistory(ctx, bytes.NewReader(data))
}
