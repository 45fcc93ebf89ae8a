package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMetadataSubDir = "metadata"
	DefaultPendingSubDir  = "metadata-pending"
	DefaultDataSubDir     = "data"
	DefaultBingMetaSubDir = "bing/meta"
	DefaultStatsFile      = "stats.json"
	DefaultLedgerFile     = "timestamps-backup-all.txt"
)

const (
	defaultBingAPIURL       = "https://www.bing.com/HPImageArchive.aspx"
	defaultBingMarket       = "zh-CN"
	defaultBingDelayMs      = 500
	defaultBingTimeoutSecs  = 12
	defaultWatchDebounceMs  = 1500
	defaultPort             = "8080"
	defaultPublishEnv       = "production"
	defaultProbeMode        = "magick"
	defaultTagFile          = "/tmp/new_tag.txt"
	defaultProcessedCountFn = "/tmp/metadata_processed.txt"
)

type Config struct {
	// image repository root; every other relative path hangs off it
	RootDirectory string

	MetadataSubDir string
	PendingSubDir  string
	DataSubDir     string
	BingMetaSubDir string
	StatsFile      string
	LedgerFile     string

	// run journal (sqlite); empty disables it
	JournalPath string

	// run tag and run side files
	CDNTag             string
	TagFile            string
	ProcessedCountFile string

	// probing and publishing
	ProbeMode  string
	CDNBaseURL string
	PublishEnv string
	Series     []Series

	// external feed
	BingAPIURL       string
	BingMarket       string
	BingRequestDelay time.Duration
	BingHTTPTimeout  time.Duration

	// preview server and watcher
	Port           string
	AllowedOrigins []string
	WatchDebounce  time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBool(envVar string) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return false
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Treating as false.", envVar, valStr)
		return false
	}
	return val
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	root := getEnvOrDefault("ROOT_DIRECTORY", ".")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for root directory '%s': %w", root, err)
	}

	probeMode := strings.ToLower(getEnvOrDefault("PROBE_MODE", defaultProbeMode))
	if getEnvBool("SKIP_IMAGE_DIMENSIONS") {
		probeMode = "none"
	}

	series := DefaultSeries()
	if seriesFile := os.Getenv("SERIES_CONFIG"); seriesFile != "" {
		series, err = LoadSeriesFile(seriesFile)
		if err != nil {
			return Config{}, err
		}
	}

	journal, ok := os.LookupEnv("JOURNAL_PATH")
	if !ok {
		journal = "pipeline_journal.db"
	}

	cfg := Config{
		RootDirectory:      absRoot,
		MetadataSubDir:     getEnvOrDefault("METADATA_SUBDIR", DefaultMetadataSubDir),
		PendingSubDir:      getEnvOrDefault("PENDING_SUBDIR", DefaultPendingSubDir),
		DataSubDir:         getEnvOrDefault("DATA_SUBDIR", DefaultDataSubDir),
		BingMetaSubDir:     getEnvOrDefault("BING_META_SUBDIR", DefaultBingMetaSubDir),
		StatsFile:          getEnvOrDefault("STATS_FILE", DefaultStatsFile),
		LedgerFile:         getEnvOrDefault("LEDGER_FILE", DefaultLedgerFile),
		JournalPath:        journal,
		CDNTag:             strings.TrimSpace(os.Getenv("CDN_TAG")),
		TagFile:            getEnvOrDefault("TAG_FILE", defaultTagFile),
		ProcessedCountFile: getEnvOrDefault("PROCESSED_COUNT_FILE", defaultProcessedCountFn),
		ProbeMode:          probeMode,
		CDNBaseURL:         strings.TrimRight(os.Getenv("CDN_BASE_URL"), "/"),
		PublishEnv:         getEnvOrDefault("PUBLISH_ENV", defaultPublishEnv),
		Series:             series,
		BingAPIURL:         getEnvOrDefault("BING_API_URL", defaultBingAPIURL),
		BingMarket:         getEnvOrDefault("BING_MARKET", defaultBingMarket),
		BingRequestDelay:   time.Duration(getEnvIntOrDefault("BING_REQUEST_DELAY_MS", defaultBingDelayMs)) * time.Millisecond,
		BingHTTPTimeout:    time.Duration(getEnvIntOrDefault("BING_HTTP_TIMEOUT_SECONDS", defaultBingTimeoutSecs)) * time.Second,
		Port:               getEnvOrDefault("PORT", defaultPort),
		AllowedOrigins:     splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		WatchDebounce:      time.Duration(getEnvIntOrDefault("WATCH_DEBOUNCE_MS", defaultWatchDebounceMs)) * time.Millisecond,
	}

	return cfg, nil
}

// SeriesByID returns the definition for id, if configured
func (c Config) SeriesByID(id string) (Series, bool) {
	for _, s := range c.Series {
		if s.ID == id {
			return s, true
		}
	}
	return Series{}, false
}

// SeriesIDs returns configured series ids in declaration order
func (c Config) SeriesIDs() []string {
	ids := make([]string, 0, len(c.Series))
	for _, s := range c.Series {
		ids = append(ids, s.ID)
	}
	return ids
}

func (c Config) LedgerPath() string {
	return filepath.Join(c.RootDirectory, c.LedgerFile)
}

// WithRoot returns a copy of c rooted at dir
func WithRoot(c Config, dir string) (Config, error) {
	absRoot, err := filepath.Abs(dir)
	if err != nil {
		return c, fmt.Errorf("failed to get absolute path for root directory '%s': %w", dir, err)
	}
	c.RootDirectory = absRoot
	return c, nil
}
