package merge

import (
	"testing"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

func rec(name, srcType, file string, props map[schema.CanonicalProperty]schema.Measurement) schema.NormalizedRecord {
	return schema.NormalizedRecord{
		MaterialName: name,
		SourceType:   srcType,
		SourceFile:   file,
		Properties:   props,
	}
}

func TestRecords_FirstWinsAcrossDocuments(t *testing.T) {
	merged := Records([]schema.NormalizedRecord{
		rec("Exceed 1018HA", "pdf", "exceed.pdf", map[schema.CanonicalProperty]schema.Measurement{
			schema.Density:   {Value: 0.918, Unit: "g/cm³"},
			schema.MeltIndex: {Value: 1.0, Unit: "g/10min"},
		}),
		rec("EXCEED 1018 HA", "html", "exceed.html", map[schema.CanonicalProperty]schema.Measurement{
			schema.Density:       {Value: 0.92, Unit: "g/cm³"},
			schema.TensileStrength: {Value: 21.5, Unit: "MPa"},
		}),
	})
	if len(merged) != 1 {
		t.Fatalf("expected one merged record, got %d", len(merged))
	}
	m := merged[0]
	if m.MaterialName != "Exceed 1018HA" {
		t.Fatalf("first seen name must stick, got %q", m.MaterialName)
	}
	if got := m.Properties[schema.Density].Value; got != 0.918 {
		t.Fatalf("density must come from the first document, got %v", got)
	}
	if got := m.Properties[schema.TensileStrength].Value; got != 21.5 {
		t.Fatalf("second document must fill missing fields, got %v", got)
	}
	if len(m.Sources) != 2 || m.Sources[0].File != "exceed.pdf" || m.Sources[1].File != "exceed.html" {
		t.Fatalf("sources not tracked in order: %+v", m.Sources)
	}
}

func TestRecords_DistinctMaterialsStaySeparate(t *testing.T) {
	merged := Records([]schema.NormalizedRecord{
		rec("2420D", "pdf", "a.pdf", map[schema.CanonicalProperty]schema.Measurement{
			schema.Density: {Value: 0.923, Unit: "g/cm³"},
		}),
		rec("2426H", "pdf", "b.pdf", map[schema.CanonicalProperty]schema.Measurement{
			schema.Density: {Value: 0.924, Unit: "g/cm³"},
		}),
	})
	if len(merged) != 2 {
		t.Fatalf("expected two records, got %d", len(merged))
	}
	if merged[0].MaterialName != "2420D" || merged[1].MaterialName != "2426H" {
		t.Fatalf("input order not preserved: %+v", merged)
	}
}

func TestRecords_SkipsUnnamedRecords(t *testing.T) {
	merged := Records([]schema.NormalizedRecord{
		rec("", "html", "x.html", map[schema.CanonicalProperty]schema.Measurement{
			schema.Density: {Value: 0.92, Unit: "g/cm³"},
		}),
		rec("™®", "html", "y.html", nil),
	})
	if len(merged) != 0 {
		t.Fatalf("unnamed records must not merge, got %+v", merged)
	}
}

func TestRecords_Deterministic(t *testing.T) {
	in := []schema.NormalizedRecord{
		rec("A", "pdf", "a.pdf", map[schema.CanonicalProperty]schema.Measurement{schema.Density: {Value: 1, Unit: "g/cm³"}}),
		rec("B", "pdf", "b.pdf", map[schema.CanonicalProperty]schema.Measurement{schema.Density: {Value: 2, Unit: "g/cm³"}}),
		rec("A", "html", "a.html", map[schema.CanonicalProperty]schema.Measurement{schema.MeltIndex: {Value: 3, Unit: "g/10min"}}),
	}
	first := Records(in)
	second := Records(in)
	if len(first) != len(second) {
		t.Fatalf("merge not deterministic: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].MaterialName != second[i].MaterialName {
			t.Fatalf("order changed between runs at %d", i)
		}
	}
}
