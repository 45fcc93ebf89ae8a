package media

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/camden-git/wallpapersync/utils"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// NativeProber reads image headers in-process. formats without a registered
// decoder fall back to the EXIF pixel dimension tags. only the raster
// extensions the decoders cover are opened.
type NativeProber struct{}

func (NativeProber) Probe(path string) (Dimensions, bool) {
	if !utils.IsRasterImage(path) {
		return Dimensions{}, false
	}
	file, err := os.Open(path)
	if err != nil {
		log.Printf("media.probe: Warning - failed to open %s: %v", path, err)
		return Dimensions{}, false
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err == nil && config.Width > 0 && config.Height > 0 {
		return Dimensions{Width: config.Width, Height: config.Height}, true
	}

	if _, err := file.Seek(0, 0); err != nil {
		return Dimensions{}, false
	}

	exifData, err := exif.Decode(file)
	if err != nil {
		log.Printf("media.probe: Warning - could not determine dimensions of %s", path)
		return Dimensions{}, false
	}

	w := exifInt(exifData, exif.PixelXDimension)
	h := exifInt(exifData, exif.PixelYDimension)
	if w <= 0 || h <= 0 {
		return Dimensions{}, false
	}
	return Dimensions{Width: w, Height: h}, true
}

func exifInt(exifData *exif.Exif, tagName exif.FieldName) int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return 0
	}
	val, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return val
}
