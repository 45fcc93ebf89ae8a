package services

import (
	"github.com/camden-git/wallpapersync/models"
	"github.com/camden-git/wallpapersync/utils"
)

// ShouldMergeAnnotation decides whether an incoming fragment may overwrite the
// stored annotation. a fragment without keywords never wins.
func ShouldMergeAnnotation(existing *models.Annotation, incoming *models.PendingAnnotation) bool {
	if incoming == nil || len(incoming.Keywords) == 0 {
		return false
	}
	if existing == nil {
		return true
	}

	switch {
	case existing.AnalyzedAt == nil || *existing.AnalyzedAt == "":
		return true
	case existing.IsPlaceholder():
		return true
	case incoming.Confidence != nil && *incoming.Confidence > existing.Confidence:
		return true
	case nonEmpty(incoming.Description) && existing.Description == "":
		return true
	case nonEmpty(incoming.DisplayTitle) && existing.DisplayTitle == "":
		return true
	}
	return false
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// MergeAnnotation overlays the supplied fields of incoming onto a copy of
// existing. existing is not modified.
func MergeAnnotation(existing *models.Annotation, incoming *models.PendingAnnotation) *models.Annotation {
	var merged models.Annotation
	if existing != nil {
		merged = *existing
		merged.Keywords = append([]string(nil), existing.Keywords...)
	} else {
		merged = *models.DefaultAnnotation()
	}
	if merged.Keywords == nil {
		merged.Keywords = []string{}
	}
	if incoming == nil {
		return &merged
	}

	if incoming.Keywords != nil {
		merged.Keywords = append([]string{}, incoming.Keywords...)
	}
	if incoming.Description != nil {
		merged.Description = *incoming.Description
	}
	if incoming.DisplayTitle != nil {
		merged.DisplayTitle = *incoming.DisplayTitle
	}
	if incoming.AIFilename != nil {
		merged.AIFilename = *incoming.AIFilename
	}
	if incoming.Confidence != nil {
		merged.Confidence = *incoming.Confidence
	}
	if incoming.Model != nil {
		merged.Model = *incoming.Model
	}
	if incoming.AnalyzedAt != nil {
		at := *incoming.AnalyzedAt
		merged.AnalyzedAt = &at
	}

	// the proposed filename never lands under its own key
	if proposed := incoming.Filename.First(); proposed != "" {
		if merged.DisplayTitle == "" {
			merged.DisplayTitle = utils.StripExtension(proposed)
		}
		merged.AIFilename = proposed
	}
	return &merged
}

// NormalizeAnnotation builds the annotation for a newly created record
func NormalizeAnnotation(incoming *models.PendingAnnotation) *models.Annotation {
	return MergeAnnotation(nil, incoming)
}
