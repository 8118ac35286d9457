// Package engine wires the shared extraction pipeline: resolver →
// extractor → unit normalizer → validator → (mapper | dirty sink). One
// call processes one document; there is no state shared across documents
// beyond the sink, so callers may fan documents out across goroutines.
package engine

import (
	"time"

	"github.com/hyperifyio/gradesheet/internal/dirty"
	"github.com/hyperifyio/gradesheet/internal/extract"
	"github.com/hyperifyio/gradesheet/internal/mapper"
	"github.com/hyperifyio/gradesheet/internal/resolve"
	"github.com/hyperifyio/gradesheet/internal/schema"
	"github.com/hyperifyio/gradesheet/internal/units"
)

// Engine holds the read-only tables and the per-stage components.
type Engine struct {
	Aliases   *schema.AliasTable
	Units     *units.Vocabulary
	Canonical map[schema.CanonicalProperty]string
	Resolver  *resolve.Resolver
	Extractor *extract.Extractor
	Validator *mapper.Validator
	Mapper    *mapper.Mapper
	Sink      dirty.Sink

	// Now stamps dirty entries; tests may pin it.
	Now func() time.Time
}

// New assembles an engine over the default tables, writing rejections to
// the given sink.
func New(sink dirty.Sink) *Engine {
	aliases := schema.DefaultAliases()
	vocab := units.DefaultVocabulary()
	return &Engine{
		Aliases:   aliases,
		Units:     vocab,
		Canonical: schema.DefaultCanonicalUnits(),
		Resolver:  resolve.New(vocab),
		Extractor: extract.New(aliases, vocab),
		Validator: mapper.NewValidator(),
		Mapper:    mapper.NewMapper(),
		Sink:      sink,
		Now:       time.Now,
	}
}

// Process runs one document through the pipeline. The returned record is
// always usable: a non-nil error reports a sink failure, never a reason to
// discard measurements accepted before it.
func (e *Engine) Process(doc schema.Document) (schema.NormalizedRecord, error) {
	rec := schema.NormalizedRecord{
		MaterialName: doc.MaterialName,
		SourceType:   doc.SourceType,
		SourceFile:   doc.ID,
		Vendor:       doc.Vendor,
		Properties:   map[schema.CanonicalProperty]schema.Measurement{},
	}

	res := e.Resolver.Resolve(doc.ID, doc.Rows)
	rec.Mode = res.Mode
	rec.Diagnostic = string(res.Diagnostic)

	var sinkErr error
	reject := func(c schema.Candidate, reason schema.Reason) {
		err := e.Sink.Append(schema.DirtyEntry{
			Source:    c.Row,
			Label:     c.Label,
			RawValue:  c.RawValue,
			RawUnit:   c.RawUnit,
			Reason:    reason,
			Timestamp: e.Now(),
		})
		if err != nil && sinkErr == nil {
			sinkErr = err
		}
	}

	opts := extract.RowOptions{TrailingFallback: doc.TrailingFallback}
	for _, row := range res.Rows {
		for _, cand := range e.Extractor.Row(row, opts) {
			if !cand.ParseOK {
				reject(cand, schema.ReasonUnparseableValue)
				continue
			}
			prop, ok := e.Aliases.Lookup(cand.Label)
			if !ok {
				// Extractor only emits candidates for recognized labels;
				// a miss here means the tables disagree. Skip silently.
				continue
			}
			value, unit, err := units.ToCanonical(e.Units, e.Canonical, cand.Value, cand.RawUnit, prop)
			if err != nil {
				// ToCanonical fails only with *UnknownUnitError for table-
				// driven callers like this one.
				reject(cand, schema.ReasonUnknownUnit)
				continue
			}
			if reason, ok := e.Validator.Check(prop, value); !ok {
				reject(cand, reason)
				continue
			}
			if ok, reason := e.Mapper.Apply(&rec, prop, schema.Measurement{Value: value, Unit: unit}); !ok && reason != "" {
				reject(cand, reason)
			}
		}
	}
	return rec, sinkErr
}
