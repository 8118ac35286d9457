package app

// Flag defaults, shared between the cmd flag setup and FileConfig.Apply so
// the overlay can tell an explicit flag value from an untouched default.
const (
	DefaultPDFDir          = "data_src"
	DefaultHTMLDir         = "data/html_pages"
	DefaultOutputPath      = "data/records.json"
	DefaultMergedPath      = "data/merged.json"
	DefaultDirtyLogPath    = "data/dirty.jsonl"
	DefaultDuplicatePolicy = "first-wins"
	DefaultMinProperties   = 2
	DefaultWorkers         = 4
)

// Config holds runtime configuration for one batch run.
type Config struct {
	// Input directories; either may be empty.
	PDFDir  string
	HTMLDir string

	// Outputs
	OutputPath   string
	MergedPath   string
	DirtyLogPath string

	// Behavior
	DuplicatePolicy string // first-wins | last-wins | reject-as-dirty
	// MinProperties drops HTML records that yielded fewer properties than
	// this; crawled index pages typically yield zero or one.
	MinProperties int
	Workers       int
	Verbose       bool
}
