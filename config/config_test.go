package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ROOT_DIRECTORY", root)
	t.Setenv("PROBE_MODE", "")
	t.Setenv("SKIP_IMAGE_DIMENSIONS", "")
	t.Setenv("SERIES_CONFIG", "")
	t.Setenv("CDN_BASE_URL", "https://cdn.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.RootDirectory)
	assert.Equal(t, "metadata", cfg.MetadataSubDir)
	assert.Equal(t, "metadata-pending", cfg.PendingSubDir)
	assert.Equal(t, "magick", cfg.ProbeMode)
	assert.Equal(t, "https://cdn.example.com", cfg.CDNBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.BingRequestDelay)
	assert.Equal(t, []string{"desktop", "mobile", "avatar"}, cfg.SeriesIDs())
	assert.Equal(t, filepath.Join(root, "timestamps-backup-all.txt"), cfg.LedgerPath())
}

func TestLoadConfigSkipDimensions(t *testing.T) {
	t.Setenv("ROOT_DIRECTORY", t.TempDir())
	t.Setenv("PROBE_MODE", "native")
	t.Setenv("SKIP_IMAGE_DIMENSIONS", "true")
	t.Setenv("SERIES_CONFIG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.ProbeMode)
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("BING_REQUEST_DELAY_MS", "soon")
	assert.Equal(t, 500, getEnvIntOrDefault("BING_REQUEST_DELAY_MS", 500))
}

func TestDefaultSeries(t *testing.T) {
	cfg := Config{Series: DefaultSeries()}

	desktop, ok := cfg.SeriesByID("desktop")
	require.True(t, ok)
	assert.Equal(t, "电脑壁纸", desktop.Name)
	assert.Equal(t, "wallpaper/desktop", desktop.WallpaperDir)
	assert.True(t, desktop.HasPreview)

	avatar, ok := cfg.SeriesByID("avatar")
	require.True(t, ok)
	assert.False(t, avatar.HasPreview)

	_, ok = cfg.SeriesByID("bing")
	assert.False(t, ok)
}

func TestLoadSeriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
series:
  - id: desktop
    name: 电脑壁纸
    hasPreview: true
  - id: poster
    wallpaperDir: art/poster
`), 0644))

	series, err := LoadSeriesFile(path)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "thumbnail/desktop", series[0].ThumbnailDir)
	assert.Equal(t, "poster", series[1].Name)
	assert.Equal(t, "art/poster", series[1].WallpaperDir)
	assert.False(t, series[1].HasPreview)
}

func TestParseSeriesRejectsBadInput(t *testing.T) {
	_, err := ParseSeries([]byte("series: []"))
	assert.ErrorIs(t, err, ErrInvalidSeries)

	_, err = ParseSeries([]byte("series:\n  - id: a\n  - id: a\n"))
	assert.ErrorIs(t, err, ErrInvalidSeries)

	_, err = ParseSeries([]byte("series:\n  - id: ../etc\n"))
	assert.ErrorIs(t, err, ErrInvalidSeries)
}

func TestWithRoot(t *testing.T) {
	dir := t.TempDir()
	base := Config{RootDirectory: "/elsewhere", LedgerFile: DefaultLedgerFile}

	cfg, err := WithRoot(base, dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.RootDirectory)
	assert.Equal(t, filepath.Join(dir, DefaultLedgerFile), cfg.LedgerPath())
	assert.Equal(t, "/elsewhere", base.RootDirectory)
}
