package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSeries = errors.New("invalid series definition")

var seriesIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Series describes one wallpaper collection and where its files live,
// relative to the repository root
type Series struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	WallpaperDir string `yaml:"wallpaperDir"`
	ThumbnailDir string `yaml:"thumbnailDir"`
	PreviewDir   string `yaml:"previewDir"`
	HasPreview   bool   `yaml:"hasPreview"`
}

func newSeries(id, name string, hasPreview bool) Series {
	return Series{
		ID:           id,
		Name:         name,
		WallpaperDir: "wallpaper/" + id,
		ThumbnailDir: "thumbnail/" + id,
		PreviewDir:   "preview/" + id,
		HasPreview:   hasPreview,
	}
}

func DefaultSeries() []Series {
	return []Series{
		newSeries("desktop", "电脑壁纸", true),
		newSeries("mobile", "手机壁纸", true),
		newSeries("avatar", "头像", false),
	}
}

type seriesFile struct {
	Series []Series `yaml:"series"`
}

// LoadSeriesFile reads series definitions from YAML. missing directory fields
// default to the conventional layout
func LoadSeriesFile(path string) ([]Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read series config '%s': %w", path, err)
	}
	return ParseSeries(data)
}

func ParseSeries(data []byte) ([]Series, error) {
	var file seriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse series config: %w", err)
	}
	if len(file.Series) == 0 {
		return nil, fmt.Errorf("%w: no series defined", ErrInvalidSeries)
	}

	seen := make(map[string]bool, len(file.Series))
	out := make([]Series, 0, len(file.Series))
	for _, s := range file.Series {
		if !seriesIDPattern.MatchString(s.ID) {
			return nil, fmt.Errorf("%w: bad id '%s'", ErrInvalidSeries, s.ID)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate id '%s'", ErrInvalidSeries, s.ID)
		}
		seen[s.ID] = true

		def := newSeries(s.ID, s.Name, s.HasPreview)
		if s.Name == "" {
			def.Name = s.ID
		}
		if s.WallpaperDir != "" {
			def.WallpaperDir = s.WallpaperDir
		}
		if s.ThumbnailDir != "" {
			def.ThumbnailDir = s.ThumbnailDir
		}
		if s.PreviewDir != "" {
			def.PreviewDir = s.PreviewDir
		}
		out = append(out, def)
	}
	return out, nil
}
