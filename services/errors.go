package services

import (
	"errors"
	"os"
)

var (
	// ErrMetadataDirMissing aborts a run whose record store location does not exist
	ErrMetadataDirMissing = errors.New("metadata directory does not exist")
	// ErrNoFeedData is returned when the feed API answers without any images
	ErrNoFeedData = errors.New("feed returned no usable data")
)

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
