package partition

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/gridiron/gridiron/internal/bloom"
	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/pkg/types"
)

func testSpec(t *testing.T) *schema.Spec {
	t.Helper()
	spec, err := schema.NewSpec([]schema.ColumnDef{
		{Name: "gameId", DType: types.DTypeInt64},
		{Name: "playId", DType: types.DTypeInt64},
		{Name: "frameId", DType: types.DTypeInt64},
		{Name: "x", DType: types.DTypeFloat64, AllowNull: true},
	})
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	return spec
}

func testRow(gameID, playID, frameID int64, x float64) types.Row {
	return types.Row{
		"gameId":  gameID,
		"playId":  playID,
		"frameId": frameID,
		"x":       x,
	}
}

func readRowCount(t *testing.T, path string) int64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		t.Fatalf("parquet open %s: %v", path, err)
	}
	return pf.NumRows()
}

func readAllRows(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stat, _ := f.Stat()
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		t.Fatal(err)
	}
	reader := parquet.NewReader(pf)
	defer reader.Close()

	var rows []map[string]interface{}
	for {
		row := map[string]interface{}{}
		err := reader.Read(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestWriteGroupsByGame(t *testing.T) {
	spec := testSpec(t)
	root := t.TempDir()
	writer := NewWriter(spec, types.DefaultKeyConfig())

	table := types.NewTable(spec.ColumnNames())
	table.Append(testRow(2023090700, 1, 1, 10.0))
	table.Append(testRow(2023090700, 1, 2, 10.5))
	table.Append(testRow(2023090700, 2, 1, 11.0))
	table.Append(testRow(2022110300, 9, 1, 50.0))

	result, err := writer.Write(context.Background(), table, root)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("failures: %v", result.Failures)
	}
	if len(result.Partitions) != 2 {
		t.Fatalf("got %d partitions, want 2", len(result.Partitions))
	}

	// Partitions come back in gameId order.
	first, second := result.Partitions[0], result.Partitions[1]
	if first.Key.GameID != 2022110300 || second.Key.GameID != 2023090700 {
		t.Fatalf("partition order: %d, %d", first.Key.GameID, second.Key.GameID)
	}
	if first.RowCount != 1 || second.RowCount != 3 {
		t.Errorf("row counts: %d, %d", first.RowCount, second.RowCount)
	}
	if first.PlayCount != 1 || second.PlayCount != 2 {
		t.Errorf("play counts: %d, %d", first.PlayCount, second.PlayCount)
	}

	for _, info := range result.Partitions {
		path := filepath.Join(root, info.Path)
		if got := readRowCount(t, path); got != info.RowCount {
			t.Errorf("%s: %d rows on disk, info says %d", info.Path, got, info.RowCount)
		}
		if info.SizeBytes <= 0 {
			t.Errorf("%s: size %d", info.Path, info.SizeBytes)
		}
	}
}

func TestWriteDropsNullGameID(t *testing.T) {
	spec := testSpec(t)
	root := t.TempDir()
	writer := NewWriter(spec, types.DefaultKeyConfig())

	table := types.NewTable(spec.ColumnNames())
	table.Append(testRow(2023090700, 1, 1, 0))
	table.Append(types.Row{"playId": int64(5), "frameId": int64(1)})

	result, err := writer.Write(context.Background(), table, root)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if result.DroppedRows != 1 {
		t.Errorf("DroppedRows = %d", result.DroppedRows)
	}
	if len(result.Partitions) != 1 || result.Partitions[0].RowCount != 1 {
		t.Errorf("partitions = %+v", result.Partitions)
	}
}

func TestWriteOverwriteIsIdempotent(t *testing.T) {
	spec := testSpec(t)
	root := t.TempDir()
	writer := NewWriter(spec, types.DefaultKeyConfig())

	table := types.NewTable(spec.ColumnNames())
	table.Append(testRow(2023090700, 1, 1, 0))
	table.Append(testRow(2023090700, 1, 2, 0))
	table.Append(testRow(2023090700, 1, 3, 0))

	if _, err := writer.Write(context.Background(), table, root); err != nil {
		t.Fatal(err)
	}

	// Re-ingest the same game with fewer rows: the file is replaced,
	// not appended to.
	smaller := types.NewTable(spec.ColumnNames())
	smaller.Append(testRow(2023090700, 2, 1, 1.0))
	smaller.Append(testRow(2023090700, 2, 2, 1.5))

	result, err := writer.Write(context.Background(), smaller, root)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, result.Partitions[0].Path)
	if got := readRowCount(t, path); got != 2 {
		t.Errorf("after rewrite the partition has %d rows, want 2", got)
	}

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.Name() != FileName && entry.Name() != bloom.SidecarName {
			t.Errorf("unexpected file in partition dir: %s", entry.Name())
		}
	}
}

func TestWriteEmitsSidecar(t *testing.T) {
	spec := testSpec(t)
	root := t.TempDir()
	writer := NewWriter(spec, types.DefaultKeyConfig())

	table := types.NewTable(spec.ColumnNames())
	table.Append(testRow(2023090700, 55, 1, 0))
	table.Append(testRow(2023090700, 88, 1, 0))

	result, err := writer.Write(context.Background(), table, root)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Dir(filepath.Join(root, result.Partitions[0].Path))
	filter, ok := bloom.ReadSidecar(filepath.Join(dir, bloom.SidecarName))
	if !ok {
		t.Fatal("sidecar missing after write")
	}
	if !filter.ContainsPlayID(55) || !filter.ContainsPlayID(88) {
		t.Error("sidecar lost play membership")
	}
}

func TestWriteNullCellsSurviveRoundTrip(t *testing.T) {
	spec := testSpec(t)
	root := t.TempDir()
	writer := NewWriter(spec, types.DefaultKeyConfig())

	table := types.NewTable(spec.ColumnNames())
	row := types.Row{"gameId": int64(2023090700), "playId": int64(1), "frameId": int64(1)}
	table.Append(row) // x is null

	result, err := writer.Write(context.Background(), table, root)
	if err != nil {
		t.Fatal(err)
	}

	rows := readAllRows(t, filepath.Join(root, result.Partitions[0].Path))
	if len(rows) != 1 {
		t.Fatalf("got %d rows", len(rows))
	}
	if v, present := rows[0]["x"]; present && v != nil {
		t.Errorf("null x came back as %v", v)
	}
}

func TestWriteEmptyTable(t *testing.T) {
	spec := testSpec(t)
	writer := NewWriter(spec, types.DefaultKeyConfig())

	result, err := writer.Write(context.Background(), types.NewTable(spec.ColumnNames()), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Partitions) != 0 || result.DroppedRows != 0 {
		t.Errorf("result = %+v", result)
	}
}
