// Package merge combines normalized records across documents: the same
// polymer grade often appears as both a vendor PDF and a crawled page.
package merge

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// SourceRef names one contributing document.
type SourceRef struct {
	Type string `json:"type"`
	File string `json:"file"`
}

// Record is the cross-document merge result for one material.
type Record struct {
	MaterialName string                            `json:"material_name"`
	Properties   map[schema.CanonicalProperty]schema.Measurement `json:"properties"`
	Sources      []SourceRef                       `json:"sources"`
}

var nameKeyRe = regexp.MustCompile(`[^a-z0-9]+`)

// nameKey canonicalizes a material name for grouping: lowercase
// alphanumerics only, so "Exceed™ 1018HA" and "exceed 1018 ha" collide.
func nameKey(name string) string {
	return nameKeyRe.ReplaceAllString(strings.ToLower(name), "")
}

// Records groups by material name and merges field-wise, first seen wins.
// Input order is preserved in the output, so merging is deterministic for
// a given record sequence.
func Records(records []schema.NormalizedRecord) []Record {
	byKey := map[string]*Record{}
	var order []string
	for _, rec := range records {
		if rec.MaterialName == "" {
			continue
		}
		key := nameKey(rec.MaterialName)
		if key == "" {
			continue
		}
		m, ok := byKey[key]
		if !ok {
			m = &Record{
				MaterialName: rec.MaterialName,
				Properties:   map[schema.CanonicalProperty]schema.Measurement{},
			}
			byKey[key] = m
			order = append(order, key)
		}
		for p, meas := range rec.Properties {
			if _, exists := m.Properties[p]; !exists {
				m.Properties[p] = meas
			}
		}
		m.Sources = append(m.Sources, SourceRef{Type: rec.SourceType, File: rec.SourceFile})
	}
	out := make([]Record, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}
