// Package main implements the gridiron-diagnose binary. It checks
// every partition file in the pool and cross-references the manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridiron/gridiron/internal/catalog"
	"github.com/gridiron/gridiron/internal/config"
	"github.com/gridiron/gridiron/internal/pool"
	"github.com/gridiron/gridiron/internal/schema"
)

func main() {
	var (
		configPath string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (yaml or json)")
	flag.BoolVar(&verbose, "v", false, "Print per-file details")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	spec, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := pool.Open(cfg.PoolRoot, spec)
	if err != nil {
		log.Fatalf("Failed to open pool: %v", err)
	}

	report, err := p.Diagnose(ctx)
	if err != nil {
		log.Fatalf("Diagnose failed: %v", err)
	}

	fmt.Printf("pool %s: %d partition files, %d rows, %d bytes, %d corrupt\n",
		report.Root, len(report.Files), report.TotalRows, report.TotalBytes, report.Corrupt)

	if verbose {
		for _, file := range report.Files {
			status := "ok"
			if file.Err != nil {
				status = fmt.Sprintf("CORRUPT: %v", file.Err)
			}
			sidecar := "no sidecar"
			if file.HasSidecar {
				sidecar = "sidecar"
			}
			fmt.Printf("  %s: %d rows, %d bytes, %s, %s\n",
				file.RelPath, file.Rows, file.SizeBytes, sidecar, status)
		}
	}

	if cfg.Catalog.Enabled {
		printCatalogStats(ctx, cfg, report)
	}

	if report.Corrupt > 0 {
		os.Exit(1)
	}
}

// printCatalogStats compares the manifest against what is on disk.
func printCatalogStats(ctx context.Context, cfg *config.Config, report *pool.DiagnoseReport) {
	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		log.Printf("Manifest unavailable: %v", err)
		return
	}
	defer cat.Close()

	stats, err := cat.GetStats(ctx)
	if err != nil {
		log.Printf("Failed to read manifest stats: %v", err)
		return
	}

	fmt.Printf("manifest %s: %d partitions across %d seasons, %d rows, %d plays\n",
		cfg.Catalog.Path, stats.PartitionCount, stats.SeasonCount, stats.TotalRows, stats.TotalPlays)

	if stats.PartitionCount != int64(len(report.Files)) {
		fmt.Printf("  warning: manifest lists %d partitions but pool has %d files\n",
			stats.PartitionCount, len(report.Files))
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
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
