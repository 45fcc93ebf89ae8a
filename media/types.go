// media/types.go
package media

type AssetType string

const (
	AssetTypeRoot     AssetType = "root"     // repository root: images, stats file, ledger
	AssetTypeMetadata AssetType = "metadata" // per-series record stores
	AssetTypePending  AssetType = "pending"  // incoming annotation batches
	AssetTypeData     AssetType = "data"     // published blobs
	AssetTypeFeed     AssetType = "feed"     // external daily feed archive
)

// Dimensions are pixel sizes reported by a Prober
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both sides are positive
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}
