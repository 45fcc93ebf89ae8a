package handlers

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/camden-git/wallpapersync/media"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/blake2b"
)

// AssetServer creates a handler that serves files of one asset type from the
// store. it expects to be mounted on a wildcard route; the wildcard is the
// path relative to the asset type directory. example usage:
//
//	r.Get("/data/*", handlers.AssetServer(store, media.AssetTypeData))
//	r.Get("/feed/*", handlers.AssetServer(store, media.AssetTypeFeed))
//
// responses carry a content hash ETag so clients revalidate cheaply after a
// republish that left a file unchanged.
func AssetServer(store media.Store, assetType media.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := chi.URLParam(r, "*")
		if relativePath == "" || strings.Contains(relativePath, "..") {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid asset path")
			return
		}

		rc, info, err := store.Get(assetType, relativePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			log.Printf("handlers.asset: SECURITY/IO - rejected '%s' for %s: %v", relativePath, assetType, err)
			WriteAPIError(w, http.StatusForbidden, CodeForbidden, "Forbidden")
			return
		}
		defer rc.Close()

		if info.IsDir() {
			http.NotFound(w, r)
			return
		}

		data, err := io.ReadAll(rc)
		if err != nil {
			log.Printf("handlers.asset: Error reading %s: %v", relativePath, err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
			return
		}

		w.Header().Set("ETag", ContentETag(data))
		w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
		http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(data))
	}
}

// ContentETag returns a strong ETag derived from a blake2b-256 digest
func ContentETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
