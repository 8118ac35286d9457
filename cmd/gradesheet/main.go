package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gradesheet/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Optional .env for local runs; missing file is fine.
	_ = godotenv.Load()

	var (
		pdfDir     string
		htmlDir    string
		outPath    string
		mergedPath string
		dirtyPath  string
		dupPolicy  string
		minProps   int
		workers    int
		configPath string
		verbose    bool
	)

	flag.StringVar(&pdfDir, "pdf.dir", envOr("GRADESHEET_PDF_DIR", app.DefaultPDFDir), "Directory of vendor datasheet PDFs")
	flag.StringVar(&htmlDir, "html.dir", envOr("GRADESHEET_HTML_DIR", app.DefaultHTMLDir), "Directory of crawled HTML pages")
	flag.StringVar(&outPath, "out", app.DefaultOutputPath, "Path for the normalized record array")
	flag.StringVar(&mergedPath, "merged.out", app.DefaultMergedPath, "Path for cross-document merged records (empty disables)")
	flag.StringVar(&dirtyPath, "dirty.log", app.DefaultDirtyLogPath, "Append-only JSONL log of rejected candidates")
	flag.StringVar(&dupPolicy, "duplicates", app.DefaultDuplicatePolicy, "Duplicate property policy: first-wins | last-wins | reject-as-dirty")
	flag.IntVar(&minProps, "min.properties", app.DefaultMinProperties, "Drop HTML records with fewer extracted properties")
	flag.IntVar(&workers, "workers", app.DefaultWorkers, "Concurrent documents in flight")
	flag.StringVar(&configPath, "config", os.Getenv("GRADESHEET_CONFIG"), "Optional YAML/JSON config file")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := app.Config{
		PDFDir:          pdfDir,
		HTMLDir:         htmlDir,
		OutputPath:      outPath,
		MergedPath:      mergedPath,
		DirtyLogPath:    dirtyPath,
		DuplicatePolicy: dupPolicy,
		MinProperties:   minProps,
		Workers:         workers,
		Verbose:         verbose,
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", configPath).Msg("cannot load config file")
		}
		fc.Apply(&cfg)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
