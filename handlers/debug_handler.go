package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/camden-git/wallpapersync/codec"
	"github.com/camden-git/wallpapersync/media"
	"github.com/camden-git/wallpapersync/models"
)

const maxBlobBody = 32 << 20

// DebugHandler decodes published blobs so an operator can inspect what the
// gallery client will see
type DebugHandler struct {
	Store media.Store
}

type DecodedEnvelope struct {
	File     string           `json:"file,omitempty"`
	Envelope *models.Envelope `json:"envelope,omitempty"`
	Payload  json.RawMessage  `json:"payload"`
}

// DecodeFile handles GET /debug/decode?path=desktop/index.json
func (dh *DebugHandler) DecodeFile(w http.ResponseWriter, r *http.Request) {
	relativePath := r.URL.Query().Get("path")
	if relativePath == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Missing 'path' query parameter")
		return
	}

	decodedPath, err := url.QueryUnescape(relativePath)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid URL encoding for path parameter")
		return
	}
	cleanPath := path.Clean(strings.TrimPrefix(decodedPath, "/"))
	if strings.HasPrefix(cleanPath, "..") {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid path: must be relative, no '..'")
		return
	}

	var env models.Envelope
	if err := media.ReadJSON(dh.Store, media.AssetTypeData, cleanPath, &env); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("No published file at '%s'", cleanPath))
			return
		}
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeUndecodeable, err.Error())
		return
	}

	payload, err := codec.Decode(env.Blob)
	if err != nil {
		log.Printf("handlers.debug: Failed to decode %s: %v", cleanPath, err)
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeUndecodeable, err.Error())
		return
	}

	log.Printf("handlers.debug: Decoded %s (%d byte blob)", cleanPath, len(env.Blob))
	env.Blob = ""
	writeJSON(w, http.StatusOK, DecodedEnvelope{File: cleanPath, Envelope: &env, Payload: payload})
}

// DecodeBlob handles POST /debug/decode with a raw blob as the request body
func (dh *DebugHandler) DecodeBlob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBlobBody))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Failed to read request body")
		return
	}

	payload, err := codec.Decode(strings.TrimSpace(string(body)))
	if err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeUndecodeable, err.Error())
		return
	}
	if !json.Valid(payload) {
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeUndecodeable, "decoded payload is not JSON")
		return
	}
	writeJSON(w, http.StatusOK, DecodedEnvelope{Payload: payload})
}
