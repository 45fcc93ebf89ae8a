package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PendingBatch is one file dropped into the pending directory by the ingestion side
type PendingBatch struct {
	Images []PendingImage `json:"images" validate:"dive"`
}

// PendingImage is a proposed record fragment. only Series and RelativePath are
// mandatory; everything else falls back to probing or defaults.
type PendingImage struct {
	Series       string             `json:"series" validate:"required"`
	RelativePath string             `json:"relativePath" validate:"required"`
	Category     string             `json:"category"`
	Subcategory  string             `json:"subcategory,omitempty"`
	Filename     string             `json:"filename"`
	CreatedAt    string             `json:"createdAt"`
	Size         int64              `json:"size,omitempty" validate:"gte=0"`
	Resolution   *Resolution        `json:"resolution,omitempty"`
	Format       string             `json:"format,omitempty"`
	AI           *PendingAnnotation `json:"ai,omitempty"`
}

// PendingAnnotation is an annotation fragment. pointer fields distinguish
// "not supplied" from a zero value so a merge only touches supplied fields.
type PendingAnnotation struct {
	Keywords     []string         `json:"keywords,omitempty"`
	Description  *string          `json:"description,omitempty"`
	DisplayTitle *string          `json:"displayTitle,omitempty"`
	Filename     FilenameProposal `json:"filename,omitempty"`
	AIFilename   *string          `json:"aiFilename,omitempty"`
	Confidence   *float64         `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Model        *string          `json:"model,omitempty"`
	AnalyzedAt   *string          `json:"analyzedAt,omitempty"`
}

// FilenameProposal is the AI-suggested file name. producers send either a
// string or a list of candidates; only the first candidate is used.
type FilenameProposal []string

// First returns the first non-empty candidate
func (f FilenameProposal) First() string {
	for _, v := range f {
		if v != "" {
			return v
		}
	}
	return ""
}

func (f *FilenameProposal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("filename: %w", err)
		}
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("filename: %w", err)
	}
	if single == "" {
		*f = nil
		return nil
	}
	*f = FilenameProposal{single}
	return nil
}
