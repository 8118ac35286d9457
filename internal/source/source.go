// Package source holds the thin, source-specific feeders. Each adapter
// turns one on-disk document into the shared ingestion shape of ordered
// cell-or-line rows that the engine consumes regardless of origin.
package source

import (
	"context"
	"fmt"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// Adapter produces rows for one document. Implementations must be safe for
// concurrent use across documents.
type Adapter interface {
	Load(ctx context.Context, path string) (schema.Document, error)
}

// SkipError marks a document that is deliberately not processed (index
// pages, blocked pages). It is not a failure; callers count and move on.
type SkipError struct {
	Path   string
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped %s: %s", e.Path, e.Reason)
}
