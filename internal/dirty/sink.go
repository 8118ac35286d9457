// Package dirty is the append-only observability path for rejected and
// unparseable candidates. Entries are JSON lines; nothing here ever mutates
// or deletes a written entry.
package dirty

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperifyio/gradesheet/internal/schema"
)

// Sink accepts dirty entries. Append must serialize concurrent callers and
// must never report a data-quality problem as an infrastructure one: the
// only error class it returns is *SinkUnavailableError.
type Sink interface {
	Append(e schema.DirtyEntry) error
}

// SinkUnavailableError means the append target itself failed. It is
// distinct from the rejection the entry records, so callers can tell a
// valid-but-unlogged rejection from accepted data.
type SinkUnavailableError struct {
	Path string
	Err  error
}

func (e *SinkUnavailableError) Error() string {
	return fmt.Sprintf("dirty sink unavailable at %s: %v", e.Path, e.Err)
}

func (e *SinkUnavailableError) Unwrap() error { return e.Err }

// FileSink appends JSON lines to one file. Safe for concurrent use; a
// mutex keeps line boundaries intact across goroutines.
type FileSink struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewFileSink opens (creating if needed) the JSONL file in append mode.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &SinkUnavailableError{Path: path, Err: err}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &SinkUnavailableError{Path: path, Err: err}
	}
	return &FileSink{path: path, f: f}, nil
}

// Append writes one entry as a JSON line.
func (s *FileSink) Append(e schema.DirtyEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return &SinkUnavailableError{Path: s.path, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(append(b, '\n')); err != nil {
		return &SinkUnavailableError{Path: s.path, Err: err}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// MemorySink collects entries in order for tests.
type MemorySink struct {
	mu      sync.Mutex
	Entries []schema.DirtyEntry
}

func (s *MemorySink) Append(e schema.DirtyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, e)
	return nil
}

// Len returns the number of appended entries.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Entries)
}
