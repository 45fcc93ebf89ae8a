package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/camden-git/wallpapersync/utils"
)

// ReadJSON loads and decodes a JSON document from the store. the error wraps
// os.ErrNotExist when the file is missing.
func ReadJSON(store Store, assetType AssetType, relativePath string, v any) error {
	rc, _, err := store.Get(assetType, relativePath)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read '%s': %w", relativePath, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse '%s': %w", relativePath, err)
	}
	return nil
}

// WriteJSON encodes v with two-space indentation and replaces the target file
func WriteJSON(store Store, assetType AssetType, relativeDirHint, filename string, v any) (string, error) {
	data, err := utils.MarshalDocument(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode '%s': %w", filename, err)
	}
	return store.Save(assetType, relativeDirHint, filename, bytes.NewReader(data))
}
