// Package mapper validates canonical values and assembles per-document
// normalized records. Validation is total: every candidate that reaches it
// receives exactly one disposition.
package mapper

import (
	"math"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// DuplicatePolicy controls what happens when one document yields the same
// property twice.
type DuplicatePolicy string

const (
	// FirstWins keeps the first accepted occurrence and drops later ones
	// silently. Default.
	FirstWins DuplicatePolicy = "first-wins"
	// LastWins lets later occurrences overwrite earlier ones.
	LastWins DuplicatePolicy = "last-wins"
	// RejectAsDirty records later occurrences as DUPLICATE_PROPERTY.
	RejectAsDirty DuplicatePolicy = "reject-as-dirty"
)

// Validator applies range and sanity checks per property.
type Validator struct {
	Ranges          map[schema.CanonicalProperty]schema.Range
	StandardNumbers map[int]struct{}
}

// NewValidator returns a validator over the default tables.
func NewValidator() *Validator {
	return &Validator{
		Ranges:          schema.DefaultRanges(),
		StandardNumbers: schema.DefaultStandardNumbers(),
	}
}

// Check classifies a canonical value. ok is true for accepted values;
// otherwise reason explains the rejection.
func (v *Validator) Check(prop schema.CanonicalProperty, value float64) (schema.Reason, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return schema.ReasonInvalidNumber, false
	}
	if value == math.Trunc(value) {
		if _, hit := v.StandardNumbers[int(value)]; hit {
			// Test-standard designation (ASTM D1238 etc.), not a measurement.
			return schema.ReasonStandardNumber, false
		}
	}
	r, known := v.Ranges[prop]
	if known && !r.Contains(value) {
		return schema.ReasonOutOfRange, false
	}
	return "", true
}

// Mapper folds accepted measurements into a record under the configured
// duplicate policy.
type Mapper struct {
	Duplicates DuplicatePolicy
	// MaxWins lists properties where the larger of two readings is kept
	// regardless of order. Datasheets report tensile strength in both MD
	// and TD; production behavior keeps the maximum.
	MaxWins map[schema.CanonicalProperty]bool
}

// NewMapper returns a mapper with the documented default policy.
func NewMapper() *Mapper {
	return &Mapper{
		Duplicates: FirstWins,
		MaxWins:    map[schema.CanonicalProperty]bool{schema.TensileStrength: true},
	}
}

// Apply stores the measurement into the record's property map and reports
// the disposition. A false return with a non-empty reason means the caller
// should log a dirty entry; a false return with an empty reason is a silent
// duplicate drop.
func (m *Mapper) Apply(rec *schema.NormalizedRecord, prop schema.CanonicalProperty, meas schema.Measurement) (bool, schema.Reason) {
	if rec.Properties == nil {
		rec.Properties = map[schema.CanonicalProperty]schema.Measurement{}
	}
	prev, dup := rec.Properties[prop]
	if !dup {
		rec.Properties[prop] = meas
		return true, ""
	}
	if m.MaxWins[prop] {
		if meas.Value > prev.Value {
			rec.Properties[prop] = meas
			return true, ""
		}
		return false, ""
	}
	switch m.Duplicates {
	case LastWins:
		rec.Properties[prop] = meas
		return true, ""
	case RejectAsDirty:
		return false, schema.ReasonDuplicateProperty
	default: // FirstWins
		return false, ""
	}
}
