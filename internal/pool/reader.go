package pool

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gridiron/gridiron/pkg/types"
)

// scanPartitionRows streams the rows of one partition file through fn,
// one decoded row at a time. Rows are never buffered here; whatever fn
// does not retain is gone. Returns the number of rows read.
func scanPartitionRows(path string, fn func(types.Row) error) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("pool: failed to open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("pool: failed to stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return 0, fmt.Errorf("pool: failed to open parquet file %s: %w", path, err)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	var read int64
	for {
		raw := map[string]interface{}{}
		err := reader.Read(&raw)
		if err == io.EOF {
			break
		}
		if err != nil {
			return read, fmt.Errorf("pool: failed to read row from %s: %w", path, err)
		}
		read++
		if err := fn(normalizeRow(raw)); err != nil {
			return read, err
		}
	}
	return read, nil
}

// partitionRowCount returns the row count from the parquet footer
// without reading row data.
func partitionRowCount(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("pool: failed to open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("pool: failed to stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return 0, fmt.Errorf("pool: failed to open parquet file %s: %w", path, err)
	}
	return pf.NumRows(), nil
}

// normalizeRow widens decoded values to the canonical scalar types.
func normalizeRow(raw map[string]interface{}) types.Row {
	row := make(types.Row, len(raw))
	for col, v := range raw {
		switch val := v.(type) {
		case nil:
			// absent means null
		case int32:
			row[col] = int64(val)
		case int:
			row[col] = int64(val)
		case float32:
			row[col] = float64(val)
		case []byte:
			row[col] = string(val)
		default:
			row[col] = val
		}
	}
	return row
}
