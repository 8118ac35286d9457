// Package units normalizes surface unit spellings and converts recognized
// unit families to each property's canonical unit. All functions are pure.
package units

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// Vocabulary maps lowercase, space-stripped surface spellings to canonical
// unit symbols and lists which symbols are legal at all. It is read-only at
// run time; tests construct trimmed fixtures via NewVocabulary.
type Vocabulary struct {
	surface map[string]string
	valid   map[string]struct{}
	// metric units preferred when a row offers both an imperial and a
	// metric reading of the same property
	preferred map[string]struct{}
}

// NewVocabulary builds a vocabulary from surface→canonical spellings, the
// set of legal canonical symbols, and the metric-preferred subset.
func NewVocabulary(surface map[string]string, valid, preferred []string) *Vocabulary {
	v := &Vocabulary{
		surface:   make(map[string]string, len(surface)),
		valid:     make(map[string]struct{}, len(valid)),
		preferred: make(map[string]struct{}, len(preferred)),
	}
	for k, c := range surface {
		v.surface[strings.ToLower(strings.ReplaceAll(k, " ", ""))] = c
	}
	for _, u := range valid {
		v.valid[u] = struct{}{}
	}
	for _, u := range preferred {
		v.preferred[u] = struct{}{}
	}
	return v
}

// DefaultVocabulary covers the unit spellings observed across vendor PDF
// datasheets and MatWeb HTML pages.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(
		map[string]string{
			"g/cm3": "g/cm³", "g/cc": "g/cm³", "g/cm^3": "g/cm³", "g/cm³": "g/cm³",
			"g/10min": "g/10min", "g/10 min": "g/10min", "dg/min": "g/10min",
			"mpa": "MPa",
			"psi": "psi",
			"lb/in3": "lb/in³", "lb/in³": "lb/in³",
			"°c": "°C", "℃": "°C", "c": "°C",
			"°f": "°F", "f": "°F",
			"%": "%",
			"g": "g",
			"n": "N",
			"j": "J",
		},
		[]string{"g/cm³", "g/10min", "MPa", "psi", "lb/in³", "°C", "°F", "%", "g", "N", "J"},
		[]string{"g/cm³", "g/10min", "MPa", "°C", "%"},
	)
}

var unitTrimRe = regexp.MustCompile(`^[^a-zA-Z0-9%°℃℉]+|[^a-zA-Z0-9%°³℃℉]+$`)

// Normalize maps a raw unit token to its canonical symbol. ok is false when
// the token is not in the vocabulary at all.
func (v *Vocabulary) Normalize(raw string) (string, bool) {
	raw = unitTrimRe.ReplaceAllString(raw, "")
	if raw == "" {
		return "", false
	}
	key := strings.ToLower(strings.ReplaceAll(raw, " ", ""))
	c, ok := v.surface[key]
	return c, ok
}

// Known reports whether the canonical symbol is legal.
func (v *Vocabulary) Known(unit string) bool {
	_, ok := v.valid[unit]
	return ok
}

// Preferred reports whether the canonical symbol is a metric unit to pick
// over an imperial alternative.
func (v *Vocabulary) Preferred(unit string) bool {
	_, ok := v.preferred[unit]
	return ok
}

// UnknownUnitError reports a unit token that is present on a row but not in
// the recognized vocabulary for the target property family.
type UnknownUnitError struct {
	Unit     string
	Property schema.CanonicalProperty
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q for property %s", e.Unit, e.Property)
}

// psi → MPa. Exact definitional factor, not the 4-digit shorthand some
// datasheets print.
const psiToMPa = 0.00689476

// ToCanonical converts value/unit to the property's canonical unit. An
// empty rawUnit means the row carried no unit token; the property's
// canonical unit is assumed. A present but unrecognized unit fails with
// *UnknownUnitError.
func ToCanonical(v *Vocabulary, canonical map[schema.CanonicalProperty]string, value float64, rawUnit string, prop schema.CanonicalProperty) (float64, string, error) {
	target, ok := canonical[prop]
	if !ok {
		return 0, "", fmt.Errorf("no canonical unit for property %s", prop)
	}
	if strings.TrimSpace(rawUnit) == "" {
		return value, target, nil
	}
	unit, ok := v.Normalize(rawUnit)
	if !ok || !v.Known(unit) {
		return 0, "", &UnknownUnitError{Unit: rawUnit, Property: prop}
	}
	switch {
	case unit == target:
		return value, target, nil
	case unit == "psi" && target == "MPa":
		return value * psiToMPa, target, nil
	case unit == "°F" && target == "°C":
		return (value - 32) * 5 / 9, target, nil
	}
	// Unit is legal vocabulary but not convertible into this property's
	// family (e.g. "g" against density). Treat as unknown for the family.
	return 0, "", &UnknownUnitError{Unit: rawUnit, Property: prop}
}
