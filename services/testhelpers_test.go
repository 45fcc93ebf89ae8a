package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camden-git/wallpapersync/config"
	"github.com/camden-git/wallpapersync/media"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func fixedNow() time.Time {
	return time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
}

func testConfig(root string) config.Config {
	return config.Config{
		RootDirectory:  root,
		MetadataSubDir: config.DefaultMetadataSubDir,
		PendingSubDir:  config.DefaultPendingSubDir,
		DataSubDir:     config.DefaultDataSubDir,
		BingMetaSubDir: config.DefaultBingMetaSubDir,
		StatsFile:      config.DefaultStatsFile,
		LedgerFile:     config.DefaultLedgerFile,
		PublishEnv:     "production",
		Series:         config.DefaultSeries(),
	}
}

func newTestStore(t *testing.T) (*media.LocalStorage, config.Config) {
	t.Helper()
	cfg := testConfig(t.TempDir())
	store, err := NewStore(cfg)
	require.NoError(t, err)
	return store, cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
