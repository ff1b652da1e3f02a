// Package main implements the gridiron-ingest binary. It normalizes
// raw tracking CSV exports against the schema config and writes them
// into the partitioned parquet pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridiron/gridiron/internal/config"
	"github.com/gridiron/gridiron/internal/ingest"
)

func main() {
	var (
		configPath string
		inputDir   string
		dataDir    string
		schemaPath string
		dryRun     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (yaml or json)")
	flag.StringVar(&inputDir, "input", "", "Directory containing raw csv files (required)")
	flag.StringVar(&dataDir, "data-dir", "", "Override data directory")
	flag.StringVar(&schemaPath, "schema", "", "Override schema config path")
	flag.BoolVar(&dryRun, "dry-run", false, "Normalize and report without writing")
	flag.Parse()

	if inputDir == "" {
		fmt.Fprintln(os.Stderr, "usage: gridiron-ingest -input <dir> [-config <file>] [-dry-run]")
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if schemaPath != "" {
		cfg.SchemaPath = schemaPath
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	// The catalog lives under the data dir, so the directories are
	// needed even for a dry run.
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create data directories: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ingestor, err := ingest.NewIngestor(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize ingestor: %v", err)
	}
	defer ingestor.Close()

	report, err := ingestor.Run(ctx, inputDir, dryRun)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}

	fmt.Print(report.Summary())
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)
	return cfg, nil
}
