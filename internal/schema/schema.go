// Package schema defines the canonical property set, the record types the
// pipeline produces, and the static alias/unit/range tables. Tables are
// plain values constructed by Default* functions so tests can substitute
// fixtures without process-wide state.
package schema

import (
	"time"
)

// CanonicalProperty names one normalized datasheet field. Each property has
// exactly one canonical unit and one accepted inclusive range.
type CanonicalProperty string

const (
	Density                  CanonicalProperty = "density"
	MeltIndex                CanonicalProperty = "melt_index"
	MeltPeakTemperature      CanonicalProperty = "melt_peak_temperature"
	VicatSofteningTemp       CanonicalProperty = "vicat_softening_temperature"
	TensileStrengthYield     CanonicalProperty = "tensile_strength_yield"
	TensileStrength          CanonicalProperty = "tensile_strength"
	Elongation               CanonicalProperty = "elongation"
	FlexuralModulus          CanonicalProperty = "flexural_modulus"
)

// Reason classifies why a candidate was rejected. Rejections are data
// quality outcomes, not errors; processing continues after each one.
type Reason string

const (
	ReasonUnknownUnit       Reason = "UNKNOWN_UNIT"
	ReasonUnparseableValue  Reason = "UNPARSEABLE_VALUE"
	ReasonOutOfRange        Reason = "OUT_OF_RANGE"
	ReasonInvalidNumber     Reason = "INVALID_NUMBER"
	ReasonStandardNumber    Reason = "STANDARD_NUMBER"
	ReasonDuplicateProperty Reason = "DUPLICATE_PROPERTY"
)

// ExtractionMode records which strategy produced a row.
type ExtractionMode string

const (
	ModeStructured ExtractionMode = "structured-cell"
	ModeLineText   ExtractionMode = "line-text"
)

// RawRow is one unit of input to the resolver: either the ordered cells of
// a table row or a single text line. It is immutable once produced.
type RawRow struct {
	DocID string
	Index int
	Cells []string
	Text  string
}

// Ref returns the row's provenance reference.
func (r RawRow) Ref() RowRef {
	return RowRef{DocID: r.DocID, Index: r.Index}
}

// Document is the shared ingestion unit both source adapters produce:
// ordered rows of cell-or-line text plus document-level metadata.
type Document struct {
	ID           string
	SourceType   string // "pdf" or "html"
	MaterialName string
	Vendor       string
	Rows         []RawRow
	// TrailingFallback enables the Shell-format trailing-value parse for
	// this document's rows.
	TrailingFallback bool
}

// RowRef identifies where a candidate came from.
type RowRef struct {
	DocID string `json:"doc_id"`
	Index int    `json:"row"`
}

// Candidate is an ephemeral (label, raw value, raw unit) triple produced by
// the extractor and consumed within one extraction pass.
type Candidate struct {
	Label    string
	RawValue string
	// RawUnit is the surface unit token, empty when the row carried none.
	RawUnit string
	// Value is the parsed numeric token, valid only when ParseOK is true.
	Value   float64
	ParseOK bool
	Row     RowRef
}

// Measurement is a value in the property's canonical unit.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// NormalizedRecord is the durable per-document output. Every measurement
// present has passed unit normalization and range validation; a record may
// be missing properties but never holds an invalid one.
type NormalizedRecord struct {
	MaterialName string                             `json:"material_name"`
	SourceType   string                             `json:"source_type"`
	SourceFile   string                             `json:"source_file"`
	Vendor       string                             `json:"vendor,omitempty"`
	Mode         ExtractionMode                     `json:"extraction_mode"`
	// Diagnostic names the resolution heuristic applied, if any, so
	// heuristic-derived records stay auditable downstream.
	Diagnostic string                            `json:"diagnostic,omitempty"`
	Properties map[CanonicalProperty]Measurement `json:"properties"`
}

// DirtyEntry is one rejected or unparseable candidate, preserved for audit.
// Entries are append-only and never mutated after write.
type DirtyEntry struct {
	Source    RowRef    `json:"source"`
	Label     string    `json:"label"`
	RawValue  string    `json:"value"`
	RawUnit   string    `json:"unit,omitempty"`
	Reason    Reason    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Range is an inclusive accepted interval for one property.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the inclusive range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}
