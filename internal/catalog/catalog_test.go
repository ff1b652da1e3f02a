package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gridiron/gridiron/internal/partition"
	"github.com/gridiron/gridiron/pkg/types"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat
}

func info(gameID int64, season string, rows int64) *partition.Info {
	return &partition.Info{
		Key:       types.PartitionKey{Season: season, GameID: gameID},
		Path:      filepath.Join("season="+season, "gameId=2023090700", partition.FileName),
		RowCount:  rows,
		PlayCount: rows / 10,
		SizeBytes: rows * 100,
		CreatedAt: time.Now(),
	}
}

func TestRegisterAndGetPartition(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	if err := cat.RegisterPartition(ctx, info(2023090700, "2023", 100), "run-1"); err != nil {
		t.Fatalf("RegisterPartition: %v", err)
	}

	record, err := cat.GetPartition(ctx, 2023090700)
	if err != nil {
		t.Fatalf("GetPartition: %v", err)
	}
	if record == nil {
		t.Fatal("registered partition not found")
	}
	if record.Season != "2023" || record.RowCount != 100 || record.RunID != "run-1" {
		t.Errorf("record = %+v", record)
	}
}

func TestGetPartitionAbsent(t *testing.T) {
	cat := openTestCatalog(t)

	record, err := cat.GetPartition(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetPartition: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil for unregistered game, got %+v", record)
	}
}

func TestReRegisterReplacesRow(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	if err := cat.RegisterPartition(ctx, info(2023090700, "2023", 100), "run-1"); err != nil {
		t.Fatal(err)
	}
	if err := cat.RegisterPartition(ctx, info(2023090700, "2023", 250), "run-2"); err != nil {
		t.Fatal(err)
	}

	record, err := cat.GetPartition(ctx, 2023090700)
	if err != nil {
		t.Fatal(err)
	}
	if record.RowCount != 250 || record.RunID != "run-2" {
		t.Errorf("re-registration did not replace: %+v", record)
	}

	records, err := cat.ListPartitions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("got %d manifest rows, want 1", len(records))
	}
}

func TestListPartitionsAndSeasons(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	for _, g := range []struct {
		id     int64
		season string
	}{
		{2023090700, "2023"},
		{2022110300, "2022"},
		{2023091100, "2023"},
	} {
		if err := cat.RegisterPartition(ctx, info(g.id, g.season, 10), "run-1"); err != nil {
			t.Fatal(err)
		}
	}

	records, err := cat.ListPartitions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Season != "2022" {
		t.Errorf("ordering: first record season = %s", records[0].Season)
	}

	seasons, err := cat.ListSeasons(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(seasons) != 2 || seasons[0] != "2022" || seasons[1] != "2023" {
		t.Errorf("seasons = %v", seasons)
	}
}

func TestGetStats(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	if err := cat.RegisterPartition(ctx, info(2023090700, "2023", 100), "run-1"); err != nil {
		t.Fatal(err)
	}
	if err := cat.RegisterPartition(ctx, info(2022110300, "2022", 50), "run-1"); err != nil {
		t.Fatal(err)
	}

	stats, err := cat.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.PartitionCount != 2 || stats.SeasonCount != 2 || stats.TotalRows != 150 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunLifecycle(t *testing.T) {
	cat := openTestCatalog(t)
	ctx := context.Background()

	started := time.Now()
	if err := cat.StartRun(ctx, "run-x", started); err != nil {
		t.Fatal(err)
	}

	run, err := cat.GetRun(ctx, "run-x")
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.FinishedAt != nil {
		t.Fatalf("run after start = %+v", run)
	}

	if err := cat.FinishRun(ctx, "run-x", 5, 1, 1234); err != nil {
		t.Fatal(err)
	}

	run, err = cat.GetRun(ctx, "run-x")
	if err != nil {
		t.Fatal(err)
	}
	if run.FinishedAt == nil || run.FilesTotal != 5 || run.FilesFailed != 1 || run.RowsWritten != 1234 {
		t.Errorf("run after finish = %+v", run)
	}

	if absent, err := cat.GetRun(ctx, "nope"); err != nil || absent != nil {
		t.Errorf("unknown run = %+v, %v", absent, err)
	}
}
