package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	dims  media.Dimensions
	calls int
}

func (p *stubProber) Probe(string) (media.Dimensions, bool) {
	p.calls++
	return p.dims, p.dims.Valid()
}

func newDocs(series ...string) SeriesDocuments {
	docs := make(SeriesDocuments)
	for _, s := range series {
		docs[s] = &models.MetadataDocument{Version: models.MetadataVersion, Series: s, Images: *models.NewImageSet()}
	}
	return docs
}

func newTestReconciler(t *testing.T, prober media.Prober) (*Reconciler, *media.LocalStorage) {
	store, cfg := newTestStore(t)
	r := NewReconciler(store, prober, cfg.Series, "v-run")
	r.Now = fixedNow
	return r, store
}

func TestLedgerScenarioCreatesPlaceholderRecord(t *testing.T) {
	r, _ := newTestReconciler(t, media.NoopProber{})
	docs := newDocs("desktop", "mobile", "avatar")

	entries, err := ParseLedger(strings.NewReader("desktop|插画/通用/a.png|1700000000|v1.0\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, r.SyncLedger(docs, entries))

	rec, ok := docs["desktop"].Images.Get("wallpaper/desktop/插画/通用/a.png")
	require.True(t, ok)
	assert.Equal(t, "插画", rec.Category)
	assert.Equal(t, "", rec.Subcategory)
	assert.Equal(t, "a.png", rec.Filename)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", rec.CreatedAt)
	assert.Equal(t, "v1.0", rec.CDNTag)
	assert.Equal(t, "png", rec.Format)
	assert.Nil(t, rec.Resolution)
	assert.Equal(t, models.ModelFilenameInference, rec.AI.Model)
	assert.Equal(t, []string{"a"}, rec.AI.Keywords)
	assert.Nil(t, rec.AI.AnalyzedAt)
}

func TestLedgerNeverOverrides(t *testing.T) {
	r, _ := newTestReconciler(t, media.NoopProber{})
	docs := newDocs("desktop")
	key := "wallpaper/desktop/动漫/b.jpg"
	docs["desktop"].Images.Put(key, &models.ImageRecord{Category: "风景", AI: models.DefaultAnnotation()})

	synced := r.SyncLedger(docs, []models.LedgerEntry{
		{Series: "desktop", RelativePath: "动漫/b.jpg", Timestamp: 1800000000, CDNTag: "v9"},
		{Series: "bing", RelativePath: "x.jpg", Timestamp: 1},
		{Series: "desktop", RelativePath: "c.jpg", Timestamp: 1700000000},
	})
	assert.Equal(t, 1, synced)

	rec, _ := docs["desktop"].Images.Get(key)
	assert.Equal(t, "风景", rec.Category)

	loose, ok := docs["desktop"].Images.Get("wallpaper/desktop/c.jpg")
	require.True(t, ok)
	assert.Equal(t, models.UncategorizedCategory, loose.Category)
	assert.Equal(t, "v-run", loose.CDNTag)
}

func TestApplyBatchCreatesRecords(t *testing.T) {
	prober := &stubProber{dims: media.Dimensions{Width: 3840, Height: 2160}}
	r, store := newTestReconciler(t, prober)
	docs := newDocs("desktop", "mobile")

	full, err := store.GetFullPath(media.AssetTypeRoot, "wallpaper/desktop/动漫/c.jpg")
	require.NoError(t, err)
	writeFile(t, full, "0123456789")

	batch := &models.PendingBatch{Images: []models.PendingImage{
		{
			Series: "desktop", RelativePath: "wallpaper/desktop/动漫/c.jpg", Category: "动漫", Filename: "c.jpg",
			CreatedAt: "2025-01-01T00:00:00.000Z", Format: "JPG",
			AI: &models.PendingAnnotation{Keywords: []string{"猫"}, Filename: models.FilenameProposal{"可爱的猫.jpg"}},
		},
		{
			Series: "mobile", RelativePath: "wallpaper/mobile/d.png", Category: "风景",
			Size: 2048, Resolution: &models.Resolution{Width: 1080, Height: 1920},
		},
		{Series: "tablet", RelativePath: "wallpaper/tablet/e.png"},
	}}

	processed, err := r.ApplyBatch(docs, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, prober.calls)

	c, ok := docs["desktop"].Images.Get("wallpaper/desktop/动漫/c.jpg")
	require.True(t, ok)
	assert.EqualValues(t, 10, c.Size)
	require.NotNil(t, c.Resolution)
	assert.Equal(t, "4K", c.Resolution.Label)
	assert.Equal(t, "jpg", c.Format)
	assert.Equal(t, "v-run", c.CDNTag)
	assert.Equal(t, "可爱的猫", c.AI.DisplayTitle)
	assert.Equal(t, "可爱的猫.jpg", c.AI.AIFilename)
	assert.Equal(t, models.ModelNone, c.AI.Model)

	d, ok := docs["mobile"].Images.Get("wallpaper/mobile/d.png")
	require.True(t, ok)
	assert.EqualValues(t, 2048, d.Size)
	assert.Equal(t, "超清", d.Resolution.Label)
	assert.Equal(t, "d.png", d.Filename)
	assert.Equal(t, models.DefaultFormat, d.Format)
	assert.Equal(t, models.ModelNone, d.AI.Model)
}

func TestPlaceholderSupersession(t *testing.T) {
	r, _ := newTestReconciler(t, media.NoopProber{})
	docs := newDocs("desktop")
	key := "wallpaper/desktop/a.png"
	docs["desktop"].Images.Put(key, &models.ImageRecord{
		Category: "插画", Size: 100,
		AI: &models.Annotation{Keywords: []string{"a"}, Model: models.ModelFilenameInference},
	})

	processed, err := r.ApplyBatch(docs, &models.PendingBatch{Images: []models.PendingImage{{
		Series: "desktop", RelativePath: key, Category: "别的", Size: 999,
		AI: &models.PendingAnnotation{
			Keywords:    []string{"少女", "星空"},
			Description: strPtr("星空下的少女"),
			Confidence:  floatPtr(0.8),
			Model:       strPtr("vision-1"),
			AnalyzedAt:  strPtr("2025-01-09T00:00:00.000Z"),
		},
	}}})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	rec, _ := docs["desktop"].Images.Get(key)
	assert.Equal(t, "插画", rec.Category)
	assert.EqualValues(t, 100, rec.Size)
	assert.Equal(t, []string{"少女", "星空"}, rec.AI.Keywords)
	assert.Equal(t, "星空下的少女", rec.AI.Description)
	assert.Equal(t, 0.8, rec.AI.Confidence)
	assert.Equal(t, "vision-1", rec.AI.Model)
	require.NotNil(t, rec.AI.AnalyzedAt)
}

func TestNonQualifyingMergeIsNoop(t *testing.T) {
	r, _ := newTestReconciler(t, media.NoopProber{})
	docs := newDocs("desktop")
	key := "wallpaper/desktop/m.png"
	original := &models.Annotation{Keywords: []string{"k"}, Description: "d", DisplayTitle: "t", Confidence: 0.5, Model: "manual", AnalyzedAt: strPtr("2025-01-01T00:00:00.000Z")}
	docs["desktop"].Images.Put(key, &models.ImageRecord{AI: original})

	processed, err := r.ApplyBatch(docs, &models.PendingBatch{Images: []models.PendingImage{{
		Series: "desktop", RelativePath: key,
		AI: &models.PendingAnnotation{Confidence: floatPtr(0.4), Keywords: []string{"x"}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	rec, _ := docs["desktop"].Images.Get(key)
	assert.Same(t, original, rec.AI)
	assert.Equal(t, []string{"k"}, rec.AI.Keywords)
}

func TestAtMostOneRecordPerKey(t *testing.T) {
	r, _ := newTestReconciler(t, media.NoopProber{})
	docs := newDocs("desktop")
	entry := models.PendingImage{Series: "desktop", RelativePath: "wallpaper/desktop/x/dup.jpg", Category: "x",
		AI: &models.PendingAnnotation{Keywords: []string{"k"}}}

	for i := 0; i < 3; i++ {
		_, err := r.ApplyBatch(docs, &models.PendingBatch{Images: []models.PendingImage{entry, entry}})
		require.NoError(t, err)
	}
	r.SyncLedger(docs, []models.LedgerEntry{{Series: "desktop", RelativePath: "x/dup.jpg", Timestamp: 1}})

	assert.Equal(t, 1, docs["desktop"].Images.Len())
}

func TestInvalidBatchIsNotApplied(t *testing.T) {
	r, _ := newTestReconciler(t, media.NoopProber{})
	docs := newDocs("desktop")

	_, err := r.ApplyBatch(docs, &models.PendingBatch{Images: []models.PendingImage{
		{Series: "desktop", RelativePath: "wallpaper/desktop/ok.jpg"},
		{Series: "desktop", RelativePath: ""},
	}})
	assert.Error(t, err)
	assert.Equal(t, 0, docs["desktop"].Images.Len())

	_, err = r.ApplyBatch(docs, &models.PendingBatch{Images: []models.PendingImage{
		{Series: "desktop", RelativePath: "wallpaper/desktop/ok.jpg", AI: &models.PendingAnnotation{Confidence: floatPtr(1.5)}},
	}})
	assert.Error(t, err)
	assert.Equal(t, 0, docs["desktop"].Images.Len())
}

func TestProcessPendingOrderAndRetry(t *testing.T) {
	r, store := newTestReconciler(t, media.NoopProber{})
	svc := NewReconcileService(store, r)
	docs := newDocs("desktop")

	dir, err := store.EnsureDir(media.AssetTypePending)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "002.json"), `{"images":[{"series":"desktop","relativePath":"wallpaper/desktop/a.jpg","category":"second","ai":{"keywords":["late"],"confidence":0.9}}]}`)
	writeFile(t, filepath.Join(dir, "001.json"), `{"images":[{"series":"desktop","relativePath":"wallpaper/desktop/a.jpg","category":"first"}]}`)
	writeFile(t, filepath.Join(dir, "003.json"), `{"images":[{"series":"desktop"`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `ignored`)

	results, total, err := svc.ProcessPending(docs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"001.json", "002.json", "003.json"}, []string{results[0].Name, results[1].Name, results[2].Name})
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[2].Err)
	assert.Equal(t, 2, total)

	rec, _ := docs["desktop"].Images.Get("wallpaper/desktop/a.jpg")
	assert.Equal(t, "first", rec.Category)
	assert.Equal(t, []string{"late"}, rec.AI.Keywords)

	left, err := store.List(media.AssetTypePending, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"001.json", "002.json", "003.json", "notes.txt"}, left, "processing alone removes nothing")

	assert.Equal(t, 2, svc.RemoveApplied(results))
	left, err = store.List(media.AssetTypePending, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"003.json", "notes.txt"}, left)
}

func TestProcessPendingMissingDirectory(t *testing.T) {
	r, store := newTestReconciler(t, media.NoopProber{})
	dir, err := store.GetFullPath(media.AssetTypePending, "")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	results, total, err := NewReconcileService(store, r).ProcessPending(newDocs("desktop"))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, total)
}
