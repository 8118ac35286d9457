package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Values here
// fill gaps that flags and environment left unset.
type FileConfig struct {
	PDFDir  string `yaml:"pdfDir" json:"pdfDir"`
	HTMLDir string `yaml:"htmlDir" json:"htmlDir"`

	Out struct {
		Records string `yaml:"records" json:"records"`
		Merged  string `yaml:"merged" json:"merged"`
		Dirty   string `yaml:"dirty" json:"dirty"`
	} `yaml:"out" json:"out"`

	DuplicatePolicy string `yaml:"duplicatePolicy" json:"duplicatePolicy"`
	MinProperties   int    `yaml:"minProperties" json:"minProperties"`
	Workers         int    `yaml:"workers" json:"workers"`
	Verbose         bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// Apply overlays file values into cfg wherever cfg still holds the unset or
// flag-default value, preserving flag > env > file precedence. A flag or env
// var set to something other than its default always wins over the file.
func (fc FileConfig) Apply(cfg *Config) {
	if (cfg.PDFDir == "" || cfg.PDFDir == DefaultPDFDir) && fc.PDFDir != "" {
		cfg.PDFDir = fc.PDFDir
	}
	if (cfg.HTMLDir == "" || cfg.HTMLDir == DefaultHTMLDir) && fc.HTMLDir != "" {
		cfg.HTMLDir = fc.HTMLDir
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Out.Records != "" {
		cfg.OutputPath = fc.Out.Records
	}
	if (cfg.MergedPath == "" || cfg.MergedPath == DefaultMergedPath) && fc.Out.Merged != "" {
		cfg.MergedPath = fc.Out.Merged
	}
	if (cfg.DirtyLogPath == "" || cfg.DirtyLogPath == DefaultDirtyLogPath) && fc.Out.Dirty != "" {
		cfg.DirtyLogPath = fc.Out.Dirty
	}
	if (cfg.DuplicatePolicy == "" || cfg.DuplicatePolicy == DefaultDuplicatePolicy) && fc.DuplicatePolicy != "" {
		cfg.DuplicatePolicy = fc.DuplicatePolicy
	}
	if (cfg.MinProperties == 0 || cfg.MinProperties == DefaultMinProperties) && fc.MinProperties > 0 {
		cfg.MinProperties = fc.MinProperties
	}
	if (cfg.Workers == 0 || cfg.Workers == DefaultWorkers) && fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}
