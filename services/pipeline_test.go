package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryJournal struct {
	started  []string
	batches  []BatchResult
	finished []error
}

func (j *memoryJournal) StartRun(kind, tag string) (string, error) {
	j.started = append(j.started, kind+":"+tag)
	return "run-1", nil
}

func (j *memoryJournal) RecordBatch(_ string, result BatchResult) error {
	j.batches = append(j.batches, result)
	return nil
}

func (j *memoryJournal) FinishRun(_ string, _ int, runErr error) error {
	j.finished = append(j.finished, runErr)
	return nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *memoryJournal) {
	t.Helper()
	store, cfg := newTestStore(t)
	cfg.TagFile = filepath.Join(cfg.RootDirectory, "missing_tag.txt")
	cfg.ProcessedCountFile = filepath.Join(cfg.RootDirectory, "processed.txt")
	journal := &memoryJournal{}
	p := NewPipeline(cfg, store, media.NoopProber{}, journal)
	p.Now = fixedNow
	p.Metadata.(*repository.MetadataRepository).Now = fixedNow
	return p, journal
}

func TestResolveTag(t *testing.T) {
	now := time.UnixMilli(1736496000123)
	assert.Equal(t, "v2", ResolveTag(" v2 ", "/nonexistent", now))

	tagFile := filepath.Join(t.TempDir(), "tag.txt")
	require.NoError(t, os.WriteFile(tagFile, []byte("v-from-file\n"), 0644))
	assert.Equal(t, "v-from-file", ResolveTag("", tagFile, now))

	assert.Equal(t, "v1736496000123", ResolveTag("", "/nonexistent", now))
}

func TestRunRequiresMetadataDirectory(t *testing.T) {
	p, journal := newTestPipeline(t)

	_, err := p.Run(context.Background(), RunOptions{Tag: "v1"})
	assert.ErrorIs(t, err, ErrMetadataDirMissing)
	require.Len(t, journal.finished, 1)
	assert.ErrorIs(t, journal.finished[0], ErrMetadataDirMissing)
}

func TestRunEndToEnd(t *testing.T) {
	p, journal := newTestPipeline(t)
	root := p.Config.RootDirectory

	_, err := p.Store.EnsureDir(media.AssetTypeMetadata)
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "metadata-pending", "001.json"),
		`{"images":[{"series":"desktop","relativePath":"wallpaper/desktop/动漫/a.jpg","category":"动漫","createdAt":"2025-01-05T00:00:00.000Z","ai":{"keywords":["少女"],"confidence":0.9,"model":"vision","analyzedAt":"2025-01-05T00:00:00.000Z"}}]}`)
	writeFile(t, filepath.Join(root, "timestamps-backup-all.txt"),
		"desktop|插画/通用/b.png|1700000000|v1.0\nmobile|风景/c.jpg|1700000100|v1.1\nbing|x.jpg|1|v\n")

	var notified []string
	p.Listener = func(kind string, report *RunReport, err error) {
		notified = append(notified, kind)
	}

	report, err := p.Run(context.Background(), RunOptions{Tag: "v-run"})
	require.NoError(t, err)
	assert.Equal(t, "v-run", report.Tag)
	assert.Equal(t, 1, report.FromBatches)
	assert.Equal(t, 2, report.FromLedger)
	assert.Equal(t, 3, report.Processed)
	assert.True(t, report.Published)
	assert.Equal(t, []string{RunKindProcess}, notified)
	assert.Equal(t, []string{"process:v-run"}, journal.started)
	require.Len(t, journal.batches, 1)

	desktop, err := p.Metadata.Load("desktop")
	require.NoError(t, err)
	assert.Equal(t, 2, desktop.Count)
	assert.Equal(t, []string{"wallpaper/desktop/动漫/a.jpg", "wallpaper/desktop/插画/通用/b.png"}, desktop.Images.Keys())

	for _, rel := range []string{"data/desktop/index.json", "data/desktop/动漫.json", "data/mobile.json", "data/avatar/index.json", "stats.json"} {
		_, err := os.Stat(filepath.Join(root, rel))
		assert.NoError(t, err, rel)
	}

	count, err := os.ReadFile(p.Config.ProcessedCountFile)
	require.NoError(t, err)
	assert.Equal(t, "3", string(count))

	_, err = os.Stat(filepath.Join(root, "metadata-pending", "001.json"))
	assert.True(t, os.IsNotExist(err))

	// a second run finds nothing new and does not republish
	report, err = p.Run(context.Background(), RunOptions{Tag: "v-run2"})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.False(t, report.Published)

	report, err = p.Run(context.Background(), RunOptions{Tag: "v-run3", Force: true})
	require.NoError(t, err)
	assert.True(t, report.Published)

	rec, ok := desktop.Images.Get("wallpaper/desktop/插画/通用/b.png")
	require.True(t, ok)
	assert.Equal(t, models.ModelFilenameInference, rec.AI.Model)
}

type failingMetadata struct {
	repository.MetadataRepositoryInterface
}

func (failingMetadata) Save(*models.MetadataDocument) error {
	return errors.New("disk full")
}

const pendingBatchA = `{"images":[{"series":"desktop","relativePath":"wallpaper/desktop/动漫/a.jpg","category":"动漫"}]}`

func TestRunCancelledKeepsPendingBatches(t *testing.T) {
	p, _ := newTestPipeline(t)
	root := p.Config.RootDirectory
	_, err := p.Store.EnsureDir(media.AssetTypeMetadata)
	require.NoError(t, err)
	batch := filepath.Join(root, "metadata-pending", "001.json")
	writeFile(t, batch, pendingBatchA)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, RunOptions{Tag: "v-cancel"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, report.Published)

	_, err = os.Stat(batch)
	assert.NoError(t, err, "batch must survive a cancelled run")

	desktop, err := p.Metadata.Load("desktop")
	require.NoError(t, err)
	assert.Equal(t, 0, desktop.Images.Len())

	// the next run picks the batch up
	report, err = p.Run(context.Background(), RunOptions{Tag: "v-retry"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.FromBatches)
	_, err = os.Stat(batch)
	assert.True(t, os.IsNotExist(err))
}

func TestRunSaveFailureKeepsPendingBatches(t *testing.T) {
	p, journal := newTestPipeline(t)
	root := p.Config.RootDirectory
	_, err := p.Store.EnsureDir(media.AssetTypeMetadata)
	require.NoError(t, err)
	batch := filepath.Join(root, "metadata-pending", "001.json")
	writeFile(t, batch, pendingBatchA)

	p.Metadata = failingMetadata{p.Metadata}

	report, err := p.Run(context.Background(), RunOptions{Tag: "v-fail"})
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, report.Published)
	require.Len(t, journal.finished, 1)
	assert.Error(t, journal.finished[0])

	_, err = os.Stat(batch)
	assert.NoError(t, err, "batch must survive a failed save")
}

func TestPublishOnly(t *testing.T) {
	p, journal := newTestPipeline(t)
	_, err := p.Store.EnsureDir(media.AssetTypeMetadata)
	require.NoError(t, err)

	report, err := p.Publish(context.Background(), "v-pub")
	require.NoError(t, err)
	assert.True(t, report.Published)
	assert.Len(t, report.Series, 3)
	assert.Equal(t, []string{"publish:v-pub"}, journal.started)
}
