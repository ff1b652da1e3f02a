package partition

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/gridiron/gridiron/internal/bloom"
	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/pkg/types"
)

// Info contains metadata about one written partition.
type Info struct {
	Key       types.PartitionKey
	Path      string // relative to the pool root
	RowCount  int64
	PlayCount int64
	SizeBytes int64
	CreatedAt time.Time
}

// Failure records a partition that could not be written. The run
// continues past it; the partition's prior on-disk state is unspecified
// (best-effort, not transactional).
type Failure struct {
	Key types.PartitionKey
	Err error
}

// Result summarizes one partitioned write.
type Result struct {
	Partitions []*Info
	Failures   []Failure

	// DroppedRows counts rows discarded for having a null gameId: a
	// record with no game identity cannot be placed in any partition.
	DroppedRows int
}

// Writer fans a normalized table out into per-game parquet partitions.
type Writer struct {
	spec   *schema.Spec
	keyCfg types.KeyConfig

	// BloomFPR is the target false positive rate for playId sidecars.
	BloomFPR float64
}

// NewWriter creates a partitioned writer for the given schema and
// partition layout.
func NewWriter(spec *schema.Spec, keyCfg types.KeyConfig) *Writer {
	return &Writer{spec: spec, keyCfg: keyCfg, BloomFPR: 0.01}
}

// Write groups the table's rows by gameId and writes each group to its
// partition file under root, fully replacing any existing file at the
// same key. Partitions are written via a temp file and rename, so
// re-processing the same game is idempotent and a prior complete file is
// never mixed with a partial new one. An I/O failure in one partition is
// recorded and the remaining partitions are still written.
func (w *Writer) Write(ctx context.Context, table *types.Table, root string) (*Result, error) {
	result := &Result{}

	groups := make(map[int64][]types.Row)
	for _, row := range table.Rows {
		gameID, ok := row.GameID()
		if !ok {
			result.DroppedRows++
			continue
		}
		groups[gameID] = append(groups[gameID], row)
	}
	if result.DroppedRows > 0 {
		log.Printf("partition: dropped %d rows with null gameId", result.DroppedRows)
	}

	gameIDs := make([]int64, 0, len(groups))
	for id := range groups {
		gameIDs = append(gameIDs, id)
	}
	sort.Slice(gameIDs, func(i, j int) bool { return gameIDs[i] < gameIDs[j] })

	for _, gameID := range gameIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := DeriveKey(gameID, w.keyCfg)
		info, err := w.writePartition(key, groups[gameID], root)
		if err != nil {
			perr := gerrors.NewPartitionError(gerrors.CodePartitionWriteFailed,
				fmt.Sprintf("failed to write partition gameId=%d", gameID), err)
			log.Printf("partition: %v", perr)
			result.Failures = append(result.Failures, Failure{Key: key, Err: perr})
			continue
		}
		result.Partitions = append(result.Partitions, info)
	}

	return result, nil
}

// writePartition writes one game's rows to its partition file.
func (w *Writer) writePartition(key types.PartitionKey, rows []types.Row, root string) (*Info, error) {
	dir := filepath.Join(root, Dir(key))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create partition directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tracking-*.parquet.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if err := w.encode(tmp, rows); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	finalPath := filepath.Join(dir, FileName)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, fmt.Errorf("failed to replace partition file: %w", err)
	}

	stat, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat partition file: %w", err)
	}

	playIDs := distinctPlayIDs(rows)
	w.writeSidecar(dir, playIDs)

	return &Info{
		Key:       key,
		Path:      Path(key),
		RowCount:  int64(len(rows)),
		PlayCount: int64(len(playIDs)),
		SizeBytes: stat.Size(),
		CreatedAt: time.Now(),
	}, nil
}

// encode writes rows as snappy-compressed parquet. Null cells are
// omitted from the row map; every schema column is optional in the
// derived parquet schema, so omission encodes null.
func (w *Writer) encode(f *os.File, rows []types.Row) error {
	writer := parquet.NewGenericWriter[map[string]interface{}](
		f, w.spec.ParquetSchema(), parquet.Compression(&parquet.Snappy))

	batch := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]interface{}, len(row))
		for _, col := range w.spec.Columns {
			if v, ok := row[col.Name]; ok && v != nil {
				rec[col.Name] = v
			}
		}
		batch = append(batch, rec)
	}

	if _, err := writer.Write(batch); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeSidecar emits the playId bloom filter next to the partition
// file. Sidecars are pruning hints only: a failure here is logged and
// the partition remains fully usable.
func (w *Writer) writeSidecar(dir string, playIDs []int64) {
	filter := bloom.NewWithEstimates(len(playIDs), w.BloomFPR)
	for _, id := range playIDs {
		filter.AddPlayID(id)
	}
	path := filepath.Join(dir, bloom.SidecarName)
	if err := filter.WriteSidecar(path); err != nil {
		log.Printf("partition: %v", err)
	}
}

func distinctPlayIDs(rows []types.Row) []int64 {
	seen := make(map[int64]struct{})
	for _, row := range rows {
		if id, ok := row.PlayID(); ok {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
