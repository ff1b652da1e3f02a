package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gridiron/gridiron/internal/bloom"
	"github.com/gridiron/gridiron/internal/catalog"
	"github.com/gridiron/gridiron/internal/config"
	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/internal/partition"
	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/internal/storage"
)

// Ingestor runs end-to-end ingestion: normalize each raw CSV, fan the
// rows out into per-game partitions, register them in the manifest, and
// optionally archive the partition files.
type Ingestor struct {
	cfg     *config.Config
	spec    *schema.Spec
	writer  *partition.Writer
	catalog *catalog.Catalog
	archive storage.ObjectStorage
}

// NewIngestor wires an ingestor from configuration.
func NewIngestor(ctx context.Context, cfg *config.Config) (*Ingestor, error) {
	spec, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	ing := &Ingestor{
		cfg:    cfg,
		spec:   spec,
		writer: partition.NewWriter(spec, cfg.Partition),
	}

	if cfg.Catalog.Enabled {
		cat, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		ing.catalog = cat
	}

	archive, err := storage.NewFromConfig(ctx, cfg.Archive)
	if err != nil {
		if ing.catalog != nil {
			ing.catalog.Close()
		}
		return nil, err
	}
	ing.archive = archive

	return ing, nil
}

// Schema returns the loaded column spec.
func (ing *Ingestor) Schema() *schema.Spec { return ing.spec }

// Close releases the ingestor's resources.
func (ing *Ingestor) Close() error {
	if ing.catalog != nil {
		return ing.catalog.Close()
	}
	return nil
}

// Run ingests every *.csv file under inputDir. Files are processed
// independently: a file that fails to normalize is reported and the
// rest of the batch continues. With dryRun set, files are normalized
// and reported but nothing is written.
func (ing *Ingestor) Run(ctx context.Context, inputDir string, dryRun bool) (*RunReport, error) {
	inputs, err := filepath.Glob(filepath.Join(inputDir, "*.csv"))
	if err != nil {
		return nil, gerrors.NewIngestError(gerrors.CodeUnreadableFile,
			fmt.Sprintf("failed to list input directory %s", inputDir), err)
	}
	if len(inputs) == 0 {
		return nil, gerrors.NewIngestError(gerrors.CodeNoInputFiles,
			fmt.Sprintf("no csv files found in %s", inputDir), nil)
	}
	sort.Strings(inputs)

	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		DryRun:    dryRun,
	}
	log.Printf("ingest: run %s starting with %d files", report.RunID, len(inputs))

	if ing.catalog != nil && !dryRun {
		if err := ing.catalog.StartRun(ctx, report.RunID, report.StartedAt); err != nil {
			return nil, err
		}
	}

	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, fileReport, err := ing.ingestFile(ctx, path, report.RunID, dryRun)
		if err != nil {
			log.Printf("ingest: %s failed: %v", path, err)
			report.Failures = append(report.Failures, FileFailure{Path: path, Err: err})
			continue
		}
		report.Files = append(report.Files, fileReport)
		if result != nil {
			for _, info := range result.Partitions {
				report.RowsWritten += info.RowCount
			}
			report.RowsDropped += int64(result.DroppedRows)
			report.PartitionsWritten += len(result.Partitions)
			report.PartitionFailures += len(result.Failures)
		}
	}

	report.Duration = time.Since(report.StartedAt)

	if ing.catalog != nil && !dryRun {
		err := ing.catalog.FinishRun(ctx, report.RunID,
			int64(len(inputs)), int64(len(report.Failures)), report.RowsWritten)
		if err != nil {
			log.Printf("ingest: %v", err)
		}
	}

	return report, nil
}

// ingestFile normalizes and writes one raw file.
func (ing *Ingestor) ingestFile(ctx context.Context, path, runID string, dryRun bool) (*partition.Result, *FileReport, error) {
	table, fileReport, err := Normalize(path, ing.spec)
	if err != nil {
		return nil, nil, err
	}

	if dryRun {
		return nil, fileReport, nil
	}

	if table.NumRows() == 0 {
		log.Printf("ingest: %s has no data rows, skipping write", path)
		return nil, fileReport, nil
	}

	result, err := ing.writer.Write(ctx, table, ing.cfg.PoolRoot)
	if err != nil {
		return nil, nil, err
	}

	for _, info := range result.Partitions {
		if ing.catalog != nil {
			if err := ing.catalog.RegisterPartition(ctx, info, runID); err != nil {
				log.Printf("ingest: %v", err)
			}
		}
		if ing.archive != nil {
			err := storage.ArchivePartition(ctx, ing.archive, ing.cfg.PoolRoot, info.Path, bloom.SidecarName)
			if err != nil {
				serr := gerrors.NewStorageError(gerrors.CodeUploadFailed,
					fmt.Sprintf("failed to archive partition gameId=%d", info.Key.GameID), err)
				log.Printf("ingest: %v", serr)
			}
		}
	}

	return result, fileReport, nil
}
