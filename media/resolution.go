package media

import "github.com/camden-git/wallpapersync/models"

type resolutionTier struct {
	minSide int
	label   string
	kind    string
}

// checked top-down against the longer side
var resolutionTiers = []resolutionTier{
	{15360, "16K", "danger"},
	{7680, "8K", "danger"},
	{5120, "5K+", "danger"},
	{4096, "4K+", "warning"},
	{3840, "4K", "success"},
	{2048, "2K", "info"},
	{1920, "超清", "primary"},
	{1280, "高清", "secondary"},
}

// ResolutionTier returns the display label and badge type for a size
func ResolutionTier(width, height int) (label, kind string) {
	side := max(width, height)
	for _, tier := range resolutionTiers {
		if side >= tier.minSide {
			return tier.label, tier.kind
		}
	}
	return "标清", "secondary"
}

// NewResolution builds the classified resolution for valid dimensions
func NewResolution(d Dimensions) *models.Resolution {
	if !d.Valid() {
		return nil
	}
	label, kind := ResolutionTier(d.Width, d.Height)
	return &models.Resolution{Width: d.Width, Height: d.Height, Label: label, Type: kind}
}
