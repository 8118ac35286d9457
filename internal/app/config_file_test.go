package app

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
pdfDir: data_src
htmlDir: data/html_pages
out:
  records: out/records.json
  merged: out/merged.json
  dirty: out/dirty.jsonl
duplicatePolicy: last-wins
minProperties: 3
workers: 8
verbose: true
`)
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.PDFDir != "data_src" || fc.HTMLDir != "data/html_pages" {
		t.Fatalf("dirs: %+v", fc)
	}
	if fc.Out.Records != "out/records.json" || fc.Out.Dirty != "out/dirty.jsonl" {
		t.Fatalf("outputs: %+v", fc.Out)
	}
	if fc.DuplicatePolicy != "last-wins" || fc.MinProperties != 3 || fc.Workers != 8 || !fc.Verbose {
		t.Fatalf("behavior: %+v", fc)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"pdfDir":"pdfs","out":{"records":"r.json"}}`)
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.PDFDir != "pdfs" || fc.Out.Records != "r.json" {
		t.Fatalf("json config: %+v", fc)
	}
}

func TestLoadConfigFile_UnknownExtTriesBoth(t *testing.T) {
	path := writeConfig(t, "config.conf", `pdfDir: pdfs`)
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.PDFDir != "pdfs" {
		t.Fatalf("fallback parse: %+v", fc)
	}
}

func TestFileConfig_ApplyOverridesFlagDefaults(t *testing.T) {
	var fc FileConfig
	fc.PDFDir = "file-pdfs"
	fc.DuplicatePolicy = "last-wins"
	fc.MinProperties = 3
	fc.Workers = 8
	fc.Out.Records = "file-records.json"

	// After flag parsing with nothing set, cfg carries the flag defaults;
	// file values must still take effect then.
	cfg := Config{
		PDFDir:          DefaultPDFDir,
		HTMLDir:         DefaultHTMLDir,
		OutputPath:      DefaultOutputPath,
		MergedPath:      DefaultMergedPath,
		DirtyLogPath:    DefaultDirtyLogPath,
		DuplicatePolicy: DefaultDuplicatePolicy,
		MinProperties:   DefaultMinProperties,
		Workers:         DefaultWorkers,
	}
	fc.Apply(&cfg)

	if cfg.PDFDir != "file-pdfs" {
		t.Fatalf("file value did not override flag default: %q", cfg.PDFDir)
	}
	if cfg.OutputPath != "file-records.json" {
		t.Fatalf("file output did not override flag default: %q", cfg.OutputPath)
	}
	if cfg.DuplicatePolicy != "last-wins" || cfg.MinProperties != 3 || cfg.Workers != 8 {
		t.Fatalf("file behavior values not applied: %+v", cfg)
	}
	if cfg.HTMLDir != DefaultHTMLDir {
		t.Fatalf("fields absent from the file must keep their defaults: %q", cfg.HTMLDir)
	}
}

func TestFileConfig_ApplyKeepsExplicitValues(t *testing.T) {
	var fc FileConfig
	fc.PDFDir = "file-pdfs"
	fc.Workers = 8
	fc.Out.Records = "file-records.json"

	cfg := Config{PDFDir: "flag-pdfs", Workers: 2}
	fc.Apply(&cfg)

	if cfg.PDFDir != "flag-pdfs" {
		t.Fatalf("flag value overwritten: %q", cfg.PDFDir)
	}
	if cfg.Workers != 2 {
		t.Fatalf("flag workers overwritten: %d", cfg.Workers)
	}
	if cfg.OutputPath != "file-records.json" {
		t.Fatalf("unset value not filled: %q", cfg.OutputPath)
	}
}
