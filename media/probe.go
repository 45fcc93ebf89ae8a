package media

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/camden-git/wallpapersync/models"
)

const (
	ProbeModeMagick = "magick"
	ProbeModeNative = "native"
	ProbeModeNone   = "none"
)

// Prober reports pixel dimensions of an image file. ok is false when the
// dimensions could not be determined; that is never fatal for the caller.
type Prober interface {
	Probe(path string) (Dimensions, bool)
}

// NewProber selects a Prober by mode name
func NewProber(mode string) (Prober, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ProbeModeMagick:
		return NewExternalProber(), nil
	case ProbeModeNative:
		return NativeProber{}, nil
	case ProbeModeNone:
		return NoopProber{}, nil
	default:
		return nil, fmt.Errorf("unknown probe mode '%s'", mode)
	}
}

// NoopProber never reports dimensions
type NoopProber struct{}

func (NoopProber) Probe(string) (Dimensions, bool) { return Dimensions{}, false }

// Inspect returns the resolution and byte size of the file at fullPath.
// a missing file yields (nil, 0); a probe failure yields (nil, size). which
// extensions are worth probing is up to the prober.
func Inspect(p Prober, fullPath string) (*models.Resolution, int64) {
	info, err := os.Stat(fullPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("media.probe: Warning - could not stat %s: %v", fullPath, err)
		}
		return nil, 0
	}
	if info.IsDir() {
		return nil, 0
	}
	if p == nil {
		return nil, info.Size()
	}
	dims, ok := p.Probe(fullPath)
	if !ok || !dims.Valid() {
		return nil, info.Size()
	}
	return NewResolution(dims), info.Size()
}
