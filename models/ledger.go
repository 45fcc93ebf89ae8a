package models

// LedgerEntry is one line of the out-of-band timestamp ledger:
// series|relativePath|unixTimestampSeconds|cdnTag
type LedgerEntry struct {
	Series       string
	RelativePath string
	Timestamp    int64
	CDNTag       string
	Line         int
}
