package pool

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/gridiron/gridiron/internal/bloom"
	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/internal/observability"
	"github.com/gridiron/gridiron/pkg/types"
)

// Scan is a deferred filtered read over the pool. Nothing is read from
// disk until Collect or DistinctPlayKeys.
type Scan struct {
	pool  *Pool
	preds []Predicate
}

// Filter appends predicates to the scan. All predicates must match.
func (s *Scan) Filter(preds ...Predicate) *Scan {
	out := &Scan{pool: s.pool}
	out.preds = append(out.preds, s.preds...)
	out.preds = append(out.preds, preds...)
	return out
}

// Collect reads the matching rows from every non-prunable partition.
// Partitions are streamed row by row, so resident memory is bounded by
// the result, not the pool. A partition file that cannot be decoded is
// skipped with a warning: one corrupt game must not take down queries
// over the rest of the pool.
func (s *Scan) Collect(ctx context.Context) (*types.Table, error) {
	return s.collect(ctx, "collect")
}

func (s *Scan) collect(ctx context.Context, op string) (*types.Table, error) {
	start := time.Now()
	scan := observability.Scan{Op: op}

	table := types.NewTable(s.pool.spec.ColumnNames())
	for _, file := range s.pool.files {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if s.pruneFile(file) {
			scan.PartitionsPruned++
			continue
		}

		before := len(table.Rows)
		read, err := scanPartitionRows(file.Path, func(row types.Row) error {
			if matchesAll(row, s.preds) {
				table.Append(row)
			}
			return nil
		})
		if err != nil {
			// Drop whatever the corrupt file contributed before failing.
			table.Rows = table.Rows[:before]
			perr := gerrors.NewPoolError(gerrors.CodePartitionCorrupt,
				"skipping unreadable partition "+file.RelPath, err)
			log.Printf("pool: %v", perr)
			continue
		}
		scan.FilesScanned++
		scan.RowsRead += read
	}

	scan.RowsMatched = int64(table.NumRows())
	scan.Duration = time.Since(start)
	s.pool.stats.Record(scan)
	return table, nil
}

// DistinctPlayKeys returns the sorted distinct (gameId, playId) pairs
// among the matching rows. Rows are streamed and discarded; only the
// key pairs stay resident.
func (s *Scan) DistinctPlayKeys(ctx context.Context) ([]types.PlayKey, error) {
	return s.scanKeys(ctx, "distinct_keys")
}

func (s *Scan) scanKeys(ctx context.Context, op string) ([]types.PlayKey, error) {
	start := time.Now()
	scan := observability.Scan{Op: op}

	keys := make(map[types.PlayKey]struct{})
	for _, file := range s.pool.files {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if s.pruneFile(file) {
			scan.PartitionsPruned++
			continue
		}

		// Keys are staged per file so a decode error mid-file leaves no
		// partial contribution behind.
		fileKeys := make(map[types.PlayKey]struct{})
		var matched int64
		read, err := scanPartitionRows(file.Path, func(row types.Row) error {
			if !matchesAll(row, s.preds) {
				return nil
			}
			matched++
			gameID, okG := row.GameID()
			playID, okP := row.PlayID()
			if okG && okP {
				fileKeys[types.PlayKey{GameID: gameID, PlayID: playID}] = struct{}{}
			}
			return nil
		})
		if err != nil {
			perr := gerrors.NewPoolError(gerrors.CodePartitionCorrupt,
				"skipping unreadable partition "+file.RelPath, err)
			log.Printf("pool: %v", perr)
			continue
		}
		scan.FilesScanned++
		scan.RowsRead += read
		scan.RowsMatched += matched
		for key := range fileKeys {
			keys[key] = struct{}{}
		}
	}

	sorted := make([]types.PlayKey, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	types.SortPlayKeys(sorted)

	scan.Duration = time.Since(start)
	s.pool.stats.Record(scan)
	return sorted, nil
}

// pruneFile reports whether the partition file can be skipped without
// reading it, based on the scan's identity predicates. Pruning is only
// ever an optimization: an unprunable file is scanned.
func (s *Scan) pruneFile(file PartitionFile) bool {
	if gameID, ok := gameIDBound(s.preds); ok && file.HasGameID && file.GameID != gameID {
		return true
	}
	if playID, ok := playIDBound(s.preds); ok {
		sidecar := filepath.Join(filepath.Dir(file.Path), bloom.SidecarName)
		if filter, ok := bloom.ReadSidecar(sidecar); ok && !filter.ContainsPlayID(playID) {
			return true
		}
	}
	return false
}
