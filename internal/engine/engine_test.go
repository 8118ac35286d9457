package engine

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/hyperifyio/gradesheet/internal/dirty"
	"github.com/hyperifyio/gradesheet/internal/schema"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func lineDoc(id string, lines ...string) schema.Document {
	doc := schema.Document{ID: id, SourceType: "pdf", MaterialName: "Test Grade"}
	for i, line := range lines {
		doc.Rows = append(doc.Rows, schema.RawRow{DocID: id, Index: i, Text: line})
	}
	return doc
}

func newTestEngine() (*Engine, *dirty.MemorySink) {
	sink := &dirty.MemorySink{}
	e := New(sink)
	e.Now = fixedClock
	return e, sink
}

func TestProcess_AcceptedValuesAlwaysInRange(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Process(lineDoc("doc.pdf",
		"Density 0.918 g/cm3",
		"Melt Index 2.0 g/10min",
		"Density 50 g/cm3", // implausible, must be rejected
		"Tensile Strength 3120 psi",
	))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	ranges := schema.DefaultRanges()
	for prop, meas := range rec.Properties {
		r, ok := ranges[prop]
		if !ok {
			t.Fatalf("property %q has no documented range", prop)
		}
		if !r.Contains(meas.Value) {
			t.Fatalf("accepted %q=%v violates range [%v,%v]", prop, meas.Value, r.Min, r.Max)
		}
	}
}

func TestProcess_UntaggedColumnsDiagnosticOnRecord(t *testing.T) {
	e, _ := newTestEngine()
	doc := schema.Document{ID: "doc.html", SourceType: "html", MaterialName: "Test Grade"}
	// No header row and no unit tokens: the rightmost-column heuristic
	// applies and must be visible on the record, not just computed.
	doc.Rows = []schema.RawRow{
		{DocID: "doc.html", Index: 0, Cells: []string{"Density", "0.916", "0.925"}},
		{DocID: "doc.html", Index: 1, Cells: []string{"Melt Index", "1.0", "2.0"}},
	}
	rec, err := e.Process(doc)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if rec.Diagnostic != "untagged-dual-column" {
		t.Fatalf("heuristic resolution not flagged on record, got %q", rec.Diagnostic)
	}
	if got := rec.Properties[schema.Density].Value; got != 0.925 {
		t.Fatalf("expected rightmost column value 0.925, got %v", got)
	}

	// Explicitly tagged tables stay diagnostic-free.
	tagged := schema.Document{ID: "tagged.html", SourceType: "html", MaterialName: "Test Grade"}
	tagged.Rows = []schema.RawRow{
		{DocID: "tagged.html", Index: 0, Cells: []string{"Properties", "Metric", "English"}},
		{DocID: "tagged.html", Index: 1, Cells: []string{"Density", "0.925 g/cm³", "0.0334 lb/in³"}},
		{DocID: "tagged.html", Index: 2, Cells: []string{"Tensile Strength", "21.5 MPa", "3120 psi"}},
	}
	rec, err = e.Process(tagged)
	if err != nil {
		t.Fatalf("process tagged: %v", err)
	}
	if rec.Diagnostic != "" {
		t.Fatalf("tagged table must not carry a diagnostic, got %q", rec.Diagnostic)
	}
}

func TestProcess_OutOfRangeGoesDirty(t *testing.T) {
	e, sink := newTestEngine()
	rec, err := e.Process(lineDoc("doc.pdf", "Density 50 g/cm3"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(rec.Properties) != 0 {
		t.Fatalf("implausible density must not be stored: %+v", rec.Properties)
	}
	if sink.Len() != 1 {
		t.Fatalf("expected 1 dirty entry, got %d", sink.Len())
	}
	e0 := sink.Entries[0]
	if e0.Reason != schema.ReasonOutOfRange {
		t.Fatalf("expected OUT_OF_RANGE, got %q", e0.Reason)
	}
	if e0.Source.DocID != "doc.pdf" {
		t.Fatalf("dirty entry lost provenance: %+v", e0.Source)
	}
}

func TestProcess_UnparseableValueGoesDirty(t *testing.T) {
	e, sink := newTestEngine()
	rec, err := e.Process(lineDoc("doc.pdf", "MeltIndex: abc g/10min"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(rec.Properties) != 0 {
		t.Fatalf("expected no properties, got %+v", rec.Properties)
	}
	if sink.Len() != 1 || sink.Entries[0].Reason != schema.ReasonUnparseableValue {
		t.Fatalf("expected exactly one UNPARSEABLE_VALUE entry, got %+v", sink.Entries)
	}
}

func TestProcess_UnknownUnitGoesDirty(t *testing.T) {
	e, sink := newTestEngine()
	_, err := e.Process(lineDoc("doc.pdf", "Density 0.92 lb/in3"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sink.Len() != 1 || sink.Entries[0].Reason != schema.ReasonUnknownUnit {
		t.Fatalf("expected UNKNOWN_UNIT for a non-convertible density unit, got %+v", sink.Entries)
	}
}

func TestProcess_UnrecognizedRowsAreNotDirty(t *testing.T) {
	e, sink := newTestEngine()
	rec, err := e.Process(lineDoc("doc.pdf",
		"Applications: blown film, lamination",
		"Haze 4.5 %",
	))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(rec.Properties) != 0 || sink.Len() != 0 {
		t.Fatalf("pattern misses must be silent: props=%+v dirty=%d", rec.Properties, sink.Len())
	}
}

func TestProcess_BilingualRowsProduceIdenticalEntries(t *testing.T) {
	e, _ := newTestEngine()
	zh, err := e.Process(lineDoc("zh.pdf", "密度 0.918 g/cm3"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	en, err := e.Process(lineDoc("en.pdf", "Density 0.918 g/cm3"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(zh.Properties) != 1 || len(en.Properties) != 1 {
		t.Fatalf("expected one property each: %+v vs %+v", zh.Properties, en.Properties)
	}
	if zh.Properties[schema.Density] != en.Properties[schema.Density] {
		t.Fatalf("bilingual rows diverge: %+v vs %+v",
			zh.Properties[schema.Density], en.Properties[schema.Density])
	}
}

func TestProcess_DualColumnTableYieldsMetricValue(t *testing.T) {
	e, sink := newTestEngine()
	doc := schema.Document{ID: "matweb.html", SourceType: "html", MaterialName: "LLDPE Film Grade"}
	doc.Rows = []schema.RawRow{
		{DocID: doc.ID, Index: 0, Cells: []string{"Properties", "Metric", "English", "Comments"}},
		{DocID: doc.ID, Index: 1, Cells: []string{"Density", "0.925 g/cm³", "0.0334 lb/in³", ""}},
		{DocID: doc.ID, Index: 2, Cells: []string{"Tensile Strength", "21.5 MPa", "3120 psi", ""}},
	}
	rec, err := e.Process(doc)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if rec.Mode != schema.ModeStructured {
		t.Fatalf("expected structured mode, got %s", rec.Mode)
	}
	if got := rec.Properties[schema.Density]; got.Value != 0.925 || got.Unit != "g/cm³" {
		t.Fatalf("expected metric density 0.925 g/cm³, got %+v", got)
	}
	if sink.Len() != 0 {
		t.Fatalf("clean dual-column table produced dirty entries: %+v", sink.Entries)
	}
}

func TestProcess_ImperialOnlyValuesConvert(t *testing.T) {
	e, _ := newTestEngine()
	rec, err := e.Process(lineDoc("doc.pdf", "Vicat Softening Temperature 205 °F"))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	got := rec.Properties[schema.VicatSofteningTemp]
	want := (205.0 - 32) * 5 / 9
	if got.Unit != "°C" || got.Value != want {
		t.Fatalf("expected %v °C, got %+v", want, got)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	lines := []string{
		"Exceed 1018HA",
		"Density 0.918 g/cm3",
		"Melt Index 1.0 g/10min",
		"Elongation at Break 5000 %", // out of range
		"MeltIndex: abc g/10min",     // unparseable
	}

	run := func() ([]byte, int) {
		e, sink := newTestEngine()
		rec, err := e.Process(lineDoc("doc.pdf", lines...))
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return b, sink.Len()
	}

	firstJSON, firstDirty := run()
	secondJSON, secondDirty := run()
	if !bytes.Equal(firstJSON, secondJSON) {
		t.Fatalf("record output differs between identical runs:\n%s\n%s", firstJSON, secondJSON)
	}
	if firstDirty != secondDirty {
		t.Fatalf("dirty counts differ: %d vs %d", firstDirty, secondDirty)
	}
	if firstDirty != 2 {
		t.Fatalf("expected 2 dirty entries, got %d", firstDirty)
	}
}

// failSink returns a sink error after the first append to prove the engine
// surfaces infrastructure faults without dropping accepted measurements.
type failSink struct{ calls int }

func (s *failSink) Append(schema.DirtyEntry) error {
	s.calls++
	return &dirty.SinkUnavailableError{Path: "x", Err: bytes.ErrTooLarge}
}

func TestProcess_SinkFailureDoesNotDiscardRecord(t *testing.T) {
	sink := &failSink{}
	e := New(sink)
	e.Now = fixedClock
	rec, err := e.Process(lineDoc("doc.pdf",
		"Density 0.918 g/cm3",
		"Density 50 g/cm3",
	))
	if err == nil {
		t.Fatalf("expected the sink failure to surface")
	}
	if got := rec.Properties[schema.Density].Value; got != 0.918 {
		t.Fatalf("accepted measurement lost on sink failure: %+v", rec.Properties)
	}
}
