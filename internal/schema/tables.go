package schema

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// AliasTable maps normalized surface labels to canonical properties. Keys
// are stored in normalized form (see NormalizeLabel) and matched by
// containment, longest key first, so "meltflowindex" wins over "index".
type AliasTable struct {
	entries map[string]CanonicalProperty
	// keys sorted by descending length, precomputed once
	ordered []string
}

// NewAliasTable builds a table from surface-label → property pairs. Surface
// labels are normalized on insertion; callers may pass raw datasheet
// spellings, punctuation variants included.
func NewAliasTable(m map[string]CanonicalProperty) *AliasTable {
	entries := make(map[string]CanonicalProperty, len(m))
	for k, v := range m {
		entries[NormalizeLabel(k)] = v
	}
	ordered := make([]string, 0, len(entries))
	for k := range entries {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})
	return &AliasTable{entries: entries, ordered: ordered}
}

// Lookup maps a surface label fragment to its canonical property. The
// fragment is normalized and matched by containment against aliases in
// longest-first order. ok is false when no alias matches.
func (t *AliasTable) Lookup(label string) (CanonicalProperty, bool) {
	n := NormalizeLabel(label)
	if n == "" {
		return "", false
	}
	for _, key := range t.ordered {
		if strings.Contains(n, key) {
			return t.entries[key], true
		}
	}
	return "", false
}

var labelStripRe = regexp.MustCompile(`[\s()（）/\-]+`)

// NormalizeLabel lowercases a label, folds full-width characters to their
// narrow forms, and strips spacing and bracket punctuation so that
// "Melt Flow Rate", "melt-flow-rate" and "ＭＥＬＴ ＦＬＯＷ ＲＡＴＥ" all
// compare equal.
func NormalizeLabel(s string) string {
	s = width.Narrow.String(norm.NFKC.String(s))
	s = strings.ToLower(s)
	return labelStripRe.ReplaceAllString(s, "")
}

// DefaultAliases returns the bilingual surface-label table covering the
// vendor datasheets seen in production.
func DefaultAliases() *AliasTable {
	return NewAliasTable(map[string]CanonicalProperty{
		"密度":            Density,
		"density":         Density,
		"比重":            Density,
		"specific gravity": Density,

		"熔融指数":        MeltIndex,
		"melt index":      MeltIndex,
		"melt flow rate":  MeltIndex,
		"melt flow index": MeltIndex,

		"熔融峰值温度":           MeltPeakTemperature,
		"melt temperature":         MeltPeakTemperature,
		"peak melting temperature": MeltPeakTemperature,
		"熔点":                   MeltPeakTemperature,
		"melting point":            MeltPeakTemperature,

		"维卡软化温度": VicatSofteningTemp,
		"vicat":          VicatSofteningTemp,

		"拉伸屈服强度":  TensileStrengthYield,
		"yield strength": TensileStrengthYield,

		"拉伸断裂强度":   TensileStrength,
		"拉伸强度":       TensileStrength,
		"tensile strength": TensileStrength,
		"tensile break":    TensileStrength,

		"断裂伸长率":        Elongation,
		"elongation":          Elongation,
		"elongation at break": Elongation,

		"弯曲模量":         FlexuralModulus,
		"flexural modulus":   FlexuralModulus,
		"secant modulus":     FlexuralModulus,
	})
}

// DefaultCanonicalUnits returns the one canonical unit per property.
func DefaultCanonicalUnits() map[CanonicalProperty]string {
	return map[CanonicalProperty]string{
		Density:              "g/cm³",
		MeltIndex:            "g/10min",
		MeltPeakTemperature:  "°C",
		VicatSofteningTemp:   "°C",
		TensileStrengthYield: "MPa",
		TensileStrength:      "MPa",
		Elongation:           "%",
		FlexuralModulus:      "MPa",
	}
}

// DefaultRanges returns the inclusive plausibility range per property, in
// canonical units. Values outside these bounds are physically implausible
// for polymer grades and are rejected rather than stored.
func DefaultRanges() map[CanonicalProperty]Range {
	return map[CanonicalProperty]Range{
		Density:              {Min: 0.8, Max: 2.0},
		MeltIndex:            {Min: 0, Max: 300},
		MeltPeakTemperature:  {Min: 0, Max: 500},
		VicatSofteningTemp:   {Min: 0, Max: 500},
		TensileStrengthYield: {Min: 0, Max: 500},
		TensileStrength:      {Min: 0, Max: 500},
		Elongation:           {Min: 0, Max: 2000},
		FlexuralModulus:      {Min: 0, Max: 20000},
	}
}

// DefaultStandardNumbers returns test-standard designations (ASTM D1238,
// ISO 1183, ...) that routinely appear next to property labels and must not
// be mistaken for measured values.
func DefaultStandardNumbers() map[int]struct{} {
	nums := []int{1183, 1133, 527, 178, 306, 868, 790, 792, 1238, 1505, 1003, 2457}
	set := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		set[n] = struct{}{}
	}
	return set
}
