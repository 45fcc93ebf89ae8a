package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/camden-git/wallpapersync/database"
	"github.com/camden-git/wallpapersync/media"
	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"
)

type FileInfo struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	IsDir   bool   `json:"is_dir"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
}

type DirectoryListing struct {
	Path   string     `json:"path"`
	Sort   string     `json:"sort"`
	Files  []FileInfo `json:"files"`
	Parent string     `json:"parent,omitempty"`
}

// DirectoryHandler lists a directory of published output as JSON. the
// wildcard route parameter is the directory relative to the asset type root;
// ?sort= picks one of the database sort orders.
func DirectoryHandler(store media.Store, assetType media.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requested := strings.Trim(chi.URLParam(r, "*"), "/")
		if strings.Contains(requested, "..") {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid directory path")
			return
		}

		sortOrder := r.URL.Query().Get("sort")
		if sortOrder == "" {
			sortOrder = database.DefaultSortOrder
		}
		if !database.IsValidSortOrder(sortOrder) {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Unknown sort order '%s'", sortOrder))
			return
		}

		fullPath, err := store.GetFullPath(assetType, requested)
		if err != nil {
			log.Printf("handlers.directory: Attempted access outside %s: Request='%s': %v", assetType, requested, err)
			WriteAPIError(w, http.StatusForbidden, CodeForbidden, "Forbidden")
			return
		}

		files, err := listDirectoryContents(fullPath, requested)
		if err != nil {
			switch {
			case os.IsNotExist(err):
				WriteAPIError(w, http.StatusNotFound, CodeNotFound, "Directory not found")
			case os.IsPermission(err):
				WriteAPIError(w, http.StatusForbidden, CodeForbidden, "Forbidden")
			default:
				log.Printf("handlers.directory: Error listing %s: %v", fullPath, err)
				WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Internal Server Error")
			}
			return
		}
		SortFiles(files, sortOrder)

		listing := DirectoryListing{
			Path:  "/" + requested,
			Sort:  sortOrder,
			Files: files,
		}
		if requested != "" {
			parent := path.Dir(requested)
			if parent == "." {
				parent = ""
			}
			listing.Parent = "/" + parent
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

func listDirectoryContents(fullPath, requested string) ([]FileInfo, error) {
	stat, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, os.ErrNotExist
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", fullPath, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			log.Printf("handlers.directory: Error stating entry %s: %v. Skipping.", entry.Name(), err)
			continue
		}
		rel := path.Join("/", requested, entry.Name())
		if entry.IsDir() {
			rel += "/"
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    rel,
			IsDir:   entry.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	}
	return files, nil
}

// SortFiles orders a listing in place; directories always come first
func SortFiles(files []FileInfo, order string) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		switch order {
		case database.SortNameAsc:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case database.SortModifiedDesc:
			if a.ModTime != b.ModTime {
				return a.ModTime > b.ModTime
			}
		case database.SortModifiedAsc:
			if a.ModTime != b.ModTime {
				return a.ModTime < b.ModTime
			}
		}
		return natsort.Compare(a.Name, b.Name)
	})
}
