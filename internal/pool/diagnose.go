package pool

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gridiron/gridiron/internal/bloom"
)

// FileDiagnostic describes the health of one partition file.
type FileDiagnostic struct {
	RelPath    string
	GameID     int64
	HasGameID  bool
	SizeBytes  int64
	Rows       int64
	HasSidecar bool
	Err        error
}

// DiagnoseReport summarizes a pool health check.
type DiagnoseReport struct {
	Root       string
	Files      []FileDiagnostic
	TotalRows  int64
	TotalBytes int64
	Corrupt    int
}

// Diagnose checks every partition file in the pool: that it stats,
// that its parquet footer decodes, and whether its bloom sidecar is
// present. Row counts come from footers, so the check is cheap even
// for large pools.
func (p *Pool) Diagnose(ctx context.Context) (*DiagnoseReport, error) {
	report := &DiagnoseReport{Root: p.root}

	for _, file := range p.files {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}

		diag := FileDiagnostic{
			RelPath:   file.RelPath,
			GameID:    file.GameID,
			HasGameID: file.HasGameID,
		}

		if stat, err := os.Stat(file.Path); err == nil {
			diag.SizeBytes = stat.Size()
			report.TotalBytes += stat.Size()
		}

		sidecar := filepath.Join(filepath.Dir(file.Path), bloom.SidecarName)
		if _, ok := bloom.ReadSidecar(sidecar); ok {
			diag.HasSidecar = true
		}

		rows, err := partitionRowCount(file.Path)
		if err != nil {
			diag.Err = err
			report.Corrupt++
			log.Printf("pool: diagnose found corrupt partition %s: %v", file.RelPath, err)
		} else {
			diag.Rows = rows
			report.TotalRows += rows
		}

		report.Files = append(report.Files, diag)
	}
	return report, nil
}
