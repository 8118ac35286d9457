// Package app orchestrates batch runs: it fans documents out over the
// stateless engine, funnels rejections into the dirty sink, and writes the
// record artifacts. All logging lives here; the engine and its stages stay
// silent.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gradesheet/internal/dirty"
	"github.com/hyperifyio/gradesheet/internal/engine"
	"github.com/hyperifyio/gradesheet/internal/mapper"
	"github.com/hyperifyio/gradesheet/internal/merge"
	"github.com/hyperifyio/gradesheet/internal/schema"
	"github.com/hyperifyio/gradesheet/internal/source"
)

// App owns one configured batch run.
type App struct {
	cfg Config
}

// New constructs the application with the provided configuration.
func New(cfg Config) *App {
	return &App{cfg: cfg}
}

type job struct {
	path    string
	adapter source.Adapter
}

// Run processes every input document and writes the artifacts. Document
// failures are logged per document and never abort the batch; a dirty-sink
// failure is returned after artifacts are written, so accepted records are
// never lost to it.
func (a *App) Run(ctx context.Context) error {
	jobs, err := a.collectJobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no input documents under %q / %q", a.cfg.PDFDir, a.cfg.HTMLDir)
	}

	sink, err := dirty.NewFileSink(a.cfg.DirtyLogPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	eng := engine.New(sink)
	switch mapper.DuplicatePolicy(a.cfg.DuplicatePolicy) {
	case "", mapper.FirstWins:
	case mapper.LastWins, mapper.RejectAsDirty:
		eng.Mapper.Duplicates = mapper.DuplicatePolicy(a.cfg.DuplicatePolicy)
	default:
		return fmt.Errorf("unknown duplicate policy %q", a.cfg.DuplicatePolicy)
	}

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	results := make([]*schema.NormalizedRecord, len(jobs))
	var (
		mu      sync.Mutex
		sinkErr error
		skipped int
	)
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				j := jobs[i]
				doc, err := j.adapter.Load(ctx, j.path)
				if err != nil {
					var se *source.SkipError
					if errors.As(err, &se) {
						log.Info().Str("doc", filepath.Base(j.path)).Str("reason", se.Reason).Msg("skipped")
						mu.Lock()
						skipped++
						mu.Unlock()
						continue
					}
					log.Warn().Err(err).Str("doc", filepath.Base(j.path)).Msg("document failed; continuing")
					continue
				}
				rec, err := eng.Process(doc)
				if rec.Diagnostic != "" {
					log.Info().Str("doc", doc.ID).Str("diagnostic", rec.Diagnostic).Msg("resolution heuristic applied")
				}
				if err != nil {
					// Infrastructure fault, not data quality: remember it,
					// keep the record, finish the batch.
					mu.Lock()
					if sinkErr == nil {
						sinkErr = err
					}
					mu.Unlock()
				}
				if rec.SourceType == "html" && len(rec.Properties) < a.cfg.MinProperties {
					log.Info().Str("doc", doc.ID).Int("properties", len(rec.Properties)).Msg("insufficient properties; skipped")
					mu.Lock()
					skipped++
					mu.Unlock()
					continue
				}
				results[i] = &rec
			}
		}()
	}
	for i := range jobs {
		idx <- i
	}
	close(idx)
	wg.Wait()

	records := make([]schema.NormalizedRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}

	if err := writeJSON(a.cfg.OutputPath, records); err != nil {
		return err
	}
	log.Info().Int("records", len(records)).Int("skipped", skipped).Str("out", a.cfg.OutputPath).Msg("wrote records")

	if a.cfg.MergedPath != "" {
		merged := merge.Records(records)
		if err := writeJSON(a.cfg.MergedPath, merged); err != nil {
			return err
		}
		log.Info().Int("materials", len(merged)).Str("out", a.cfg.MergedPath).Msg("wrote merged records")
	}

	if sinkErr != nil {
		return fmt.Errorf("dirty sink degraded during run: %w", sinkErr)
	}
	return nil
}

// collectJobs lists input documents in deterministic order: PDFs first,
// then HTML pages, each sorted by name.
func (a *App) collectJobs() ([]job, error) {
	var jobs []job
	add := func(dir, pattern string, ad source.Adapter) error {
		if dir == "" {
			return nil
		}
		paths, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return err
		}
		sort.Strings(paths)
		for _, p := range paths {
			jobs = append(jobs, job{path: p, adapter: ad})
		}
		return nil
	}
	if err := add(a.cfg.PDFDir, "*.pdf", &source.PDFAdapter{}); err != nil {
		return nil, err
	}
	if err := add(a.cfg.HTMLDir, "*.html", &source.HTMLAdapter{}); err != nil {
		return nil, err
	}
	return jobs, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
