package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/camden-git/wallpapersync/utils"
)

// Placeholder annotation models. a record annotated by one of these has not
// been through real analysis and may be superseded by a later batch entry.
const (
	ModelNone               = "none"
	ModelFilenameInference  = "filename-inference"
	DefaultFormat           = "jpg"
	UncategorizedCategory   = "未分类"
	GenericSubcategoryValue = "通用"
)

// Resolution holds pixel dimensions plus the derived display tier
type Resolution struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// Annotation is the AI analysis attached to an image record
type Annotation struct {
	Keywords     []string `json:"keywords"`
	Description  string   `json:"description"`
	DisplayTitle string   `json:"displayTitle"`
	AIFilename   string   `json:"aiFilename,omitempty"`
	Confidence   float64  `json:"confidence"`
	Model        string   `json:"model"`
	AnalyzedAt   *string  `json:"analyzedAt"`
}

// IsPlaceholder reports whether the annotation came from a low-trust source
func (a *Annotation) IsPlaceholder() bool {
	return a.Model == ModelNone || a.Model == ModelFilenameInference
}

// DefaultAnnotation is used when a batch entry carries no annotation at all
func DefaultAnnotation() *Annotation {
	return &Annotation{
		Keywords: []string{},
		Model:    ModelNone,
	}
}

// ImageRecord is the persisted description of one asset, keyed by its
// relative path inside the image repository.
type ImageRecord struct {
	Category    string      `json:"category"`
	Subcategory string      `json:"subcategory"`
	Filename    string      `json:"filename"`
	CreatedAt   string      `json:"createdAt"`
	CDNTag      string      `json:"cdnTag"`
	Size        int64       `json:"size"`
	Format      string      `json:"format"`
	Resolution  *Resolution `json:"resolution"`
	AI          *Annotation `json:"ai"`
}

// ImageSet is an insertion-ordered map of asset key to record. order matters:
// public ids are assigned by position, so a reload must not reshuffle them.
type ImageSet struct {
	keys    []string
	records map[string]*ImageRecord
}

// NewImageSet returns an empty set
func NewImageSet() *ImageSet {
	return &ImageSet{records: make(map[string]*ImageRecord)}
}

// Len returns the number of records
func (s *ImageSet) Len() int {
	return len(s.keys)
}

// Get looks up a record by key
func (s *ImageSet) Get(key string) (*ImageRecord, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// Has reports whether key is present
func (s *ImageSet) Has(key string) bool {
	_, ok := s.records[key]
	return ok
}

// Put inserts rec under key. an existing key keeps its position.
func (s *ImageSet) Put(key string, rec *ImageRecord) {
	if s.records == nil {
		s.records = make(map[string]*ImageRecord)
	}
	if _, ok := s.records[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.records[key] = rec
}

// Keys returns a copy of the keys in insertion order
func (s *ImageSet) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Each calls fn for every record in insertion order
func (s *ImageSet) Each(fn func(key string, rec *ImageRecord)) {
	for _, k := range s.keys {
		fn(k, s.records[k])
	}
}

func (s ImageSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := utils.MarshalCompact(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		recJSON, err := utils.MarshalCompact(s.records[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record '%s': %w", k, err)
		}
		buf.Write(recJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *ImageSet) UnmarshalJSON(data []byte) error {
	fresh := NewImageSet()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = *fresh
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("images: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("images: expected string key, got %v", tok)
		}
		var rec ImageRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("images: failed to decode record '%s': %w", key, err)
		}
		fresh.Put(key, &rec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = *fresh
	return nil
}
