package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FileFailure records a raw file that could not be ingested.
type FileFailure struct {
	Path string
	Err  error
}

// RunReport summarizes one ingestion run across all input files.
type RunReport struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool

	Files    []*FileReport
	Failures []FileFailure

	RowsWritten       int64
	RowsDropped       int64
	PartitionsWritten int
	PartitionFailures int
}

// TotalCastFailures sums cell cast failures across all files.
func (r *RunReport) TotalCastFailures() int64 {
	var total int64
	for _, file := range r.Files {
		for _, count := range file.CastFailures {
			total += count
		}
	}
	return total
}

// Summary renders a human-readable run summary for the CLI.
func (r *RunReport) Summary() string {
	var b strings.Builder

	mode := "ingest"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "run %s (%s) finished in %s\n", r.RunID, mode, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  files: %d ok, %d failed\n", len(r.Files), len(r.Failures))
	fmt.Fprintf(&b, "  rows: %d written, %d dropped (null gameId), %d cells nulled on cast failure\n",
		r.RowsWritten, r.RowsDropped, r.TotalCastFailures())
	fmt.Fprintf(&b, "  partitions: %d written, %d failed\n", r.PartitionsWritten, r.PartitionFailures)

	for _, file := range r.Files {
		fmt.Fprintf(&b, "  %s: %d rows, %d games, %d plays, max frame %d\n",
			file.Path, file.Rows, file.UniqueGames, file.UniquePlays, file.MaxFrameID)
		if len(file.SkippedColumns) > 0 {
			cols := append([]string(nil), file.SkippedColumns...)
			sort.Strings(cols)
			fmt.Fprintf(&b, "    skipped columns: %s\n", strings.Join(cols, ", "))
		}
	}
	for _, failure := range r.Failures {
		fmt.Fprintf(&b, "  %s: FAILED: %v\n", failure.Path, failure.Err)
	}
	return b.String()
}
