// Package ingest turns raw tracking CSV exports into normalized,
// partitioned parquet in the pool. Normalization is schema-driven:
// column naming differences between export eras are resolved through
// the schema's alias lists, and cell-level noise degrades to null
// instead of failing a file.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"

	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/pkg/types"
)

// FileReport describes how one raw file was normalized.
type FileReport struct {
	Path string
	Rows int64

	// SourceColumns maps canonical column name to the raw header it was
	// read from, for columns resolved from the file.
	SourceColumns map[string]string

	// DefaultedColumns and NulledColumns list columns filled with the
	// schema default or with nulls because no source header matched.
	DefaultedColumns []string
	NulledColumns    []string

	// SkippedColumns lists required columns that could not be resolved;
	// the file is still ingested without them.
	SkippedColumns []string

	// CastFailures counts cells per column that failed to convert and
	// were degraded to null.
	CastFailures map[string]int64

	UniqueGames int
	UniquePlays int
	MaxFrameID  int64
}

// Normalize reads one raw CSV export and produces a table in the
// canonical schema. Header resolution follows the schema's priority
// order; unresolvable required columns are skipped with a warning so a
// single odd export cannot block a batch.
func Normalize(path string, spec *schema.Spec) (*types.Table, *FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, gerrors.NewIngestError(gerrors.CodeUnreadableFile,
			fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, gerrors.NewIngestError(gerrors.CodeEmptyFile,
			fmt.Sprintf("%s has no header row", path), nil)
	}
	if err != nil {
		return nil, nil, gerrors.NewIngestError(gerrors.CodeUnreadableFile,
			fmt.Sprintf("failed to read header of %s", path), err)
	}

	headerCopy := make([]string, len(header))
	copy(headerCopy, header)
	plan := spec.Plan(headerCopy)

	report := &FileReport{
		Path:          path,
		SourceColumns: make(map[string]string),
		CastFailures:  make(map[string]int64),
	}
	for _, res := range plan {
		switch res.Kind {
		case schema.ResolveSource:
			report.SourceColumns[res.Column.Name] = res.SourceName
		case schema.ResolveDefault:
			report.DefaultedColumns = append(report.DefaultedColumns, res.Column.Name)
		case schema.ResolveNull:
			report.NulledColumns = append(report.NulledColumns, res.Column.Name)
		case schema.ResolveSkip:
			report.SkippedColumns = append(report.SkippedColumns, res.Column.Name)
			log.Printf("ingest: %s: required column %q has no source, default, or null fill; skipping it for this file",
				path, res.Column.Name)
		}
	}

	table := types.NewTable(spec.ColumnNames())
	games := make(map[int64]struct{})
	plays := make(map[types.PlayKey]struct{})

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, gerrors.NewIngestError(gerrors.CodeUnreadableFile,
				fmt.Sprintf("failed to read row %d of %s", table.NumRows()+2, path), err)
		}

		row := make(types.Row, len(plan))
		for _, res := range plan {
			switch res.Kind {
			case schema.ResolveSource:
				if res.SourceIndex >= len(record) {
					continue // short row, cell is null
				}
				v, err := schema.CastCell(record[res.SourceIndex], res.Column.DType)
				if err != nil {
					report.CastFailures[res.Column.Name]++
					continue
				}
				if v != nil {
					row[res.Column.Name] = v
				}
			case schema.ResolveDefault:
				row[res.Column.Name] = res.Constant
			}
			// ResolveNull and ResolveSkip leave the cell absent.
		}
		table.Append(row)

		if gameID, ok := row.GameID(); ok {
			games[gameID] = struct{}{}
			if playID, ok := row.PlayID(); ok {
				plays[types.PlayKey{GameID: gameID, PlayID: playID}] = struct{}{}
			}
		}
		if frameID, ok := row.FrameID(); ok && frameID > report.MaxFrameID {
			report.MaxFrameID = frameID
		}
	}

	report.Rows = int64(table.NumRows())
	report.UniqueGames = len(games)
	report.UniquePlays = len(plays)

	for col, count := range report.CastFailures {
		log.Printf("ingest: %s: %d cells in column %q failed to cast and were nulled", path, count, col)
	}

	return table, report, nil
}
