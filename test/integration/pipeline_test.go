// Package integration provides end-to-end tests over the full
// ingest-to-query pipeline: raw CSV in, partitioned parquet pool out,
// sampled plays back.
package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gridiron/gridiron/internal/catalog"
	"github.com/gridiron/gridiron/internal/config"
	"github.com/gridiron/gridiron/internal/ingest"
	"github.com/gridiron/gridiron/internal/pool"
	"github.com/gridiron/gridiron/internal/schema"
	"github.com/gridiron/gridiron/pkg/types"
)

const schemaYAML = `
columns:
  - name: gameId
    dtype: int64
    aliases: [game_id]
  - name: playId
    dtype: int64
    aliases: [play_id]
  - name: frameId
    dtype: int64
    aliases: [frame_id]
  - name: nflId
    dtype: int64
    allow_null: true
  - name: x
    dtype: float64
    default: 0.0
  - name: y
    dtype: float64
    default: 0.0
  - name: s
    dtype: float64
    aliases: [speed]
    allow_null: true
  - name: club
    dtype: string
    aliases: [team, teamAbbr]
  - name: event
    dtype: string
    allow_null: true
`

// setupEnv writes the schema config, the raw input files, and a resolved
// configuration rooted in a temp directory.
func setupEnv(t *testing.T) (*config.Config, string) {
	t.Helper()
	base := t.TempDir()

	schemaPath := filepath.Join(base, "schema.yaml")
	if err := os.WriteFile(schemaPath, []byte(schemaYAML), 0644); err != nil {
		t.Fatal(err)
	}

	inputDir := filepath.Join(base, "raw")
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Two export eras: canonical headers and snake_case legacy headers.
	files := map[string]string{
		"tracking_week_1.csv": "gameId,playId,frameId,nflId,x,y,s,club,event\n" +
			"2023090700,56,1,43298,23.5,12.0,4.2,SF,\n" +
			"2023090700,56,2,43298,23.9,12.1,4.5,SF,pass_forward\n" +
			"2023090700,56,1,,27.0,26.6,0.0,SF,\n" +
			"2023090700,101,1,52409,60.1,30.0,2.2,SF,\n" +
			"2023090700,101,2,52409,60.4,30.1,2.4,SF,\n",
		"tracking_week_2.csv": "game_id,play_id,frame_id,nflId,x,y,speed,team,event\n" +
			"2023091100,12,1,47812,10.0,5.0,1.1,NYJ,\n" +
			"2023091100,12,2,47812,10.3,5.2,1.4,NYJ,ball_snap\n" +
			"2023091100,33,1,47812,80.0,40.0,NA,NYJ,\n",
		"tracking_legacy.csv": "gameId,playId,frameId,nflId,x_coord,y,s,teamAbbr,event\n" +
			"2018123000,7,1,33131,99.9,2.0,6.0,KC,\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.SchemaPath = schemaPath
	cfg.Archive.Type = config.ArchiveLocal
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	return cfg, inputDir
}

func runIngest(t *testing.T, cfg *config.Config, inputDir string) *ingest.RunReport {
	t.Helper()
	ctx := context.Background()

	ing, err := ingest.NewIngestor(ctx, cfg)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	defer ing.Close()

	report, err := ing.Run(ctx, inputDir, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func openPool(t *testing.T, cfg *config.Config) *pool.Pool {
	t.Helper()
	spec, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		t.Fatal(err)
	}
	p, err := pool.Open(cfg.PoolRoot, spec)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg, inputDir := setupEnv(t)
	ctx := context.Background()

	report := runIngest(t, cfg, inputDir)
	if len(report.Failures) != 0 {
		t.Fatalf("ingest failures: %+v", report.Failures)
	}
	if report.RowsWritten != 9 {
		t.Errorf("RowsWritten = %d", report.RowsWritten)
	}
	if report.PartitionsWritten != 3 {
		t.Errorf("PartitionsWritten = %d", report.PartitionsWritten)
	}

	p := openPool(t, cfg)
	if len(p.Files()) != 3 {
		t.Fatalf("pool files = %d", len(p.Files()))
	}

	// The legacy file's unaliased x_coord fell back to the default.
	legacy, err := p.FetchPlay(ctx, 2018123000, 7)
	if err != nil {
		t.Fatal(err)
	}
	if legacy.NumRows() != 1 {
		t.Fatalf("legacy play rows = %d", legacy.NumRows())
	}
	if x, ok := legacy.Rows[0].Float64("x"); !ok || x != 0.0 {
		t.Errorf("x = %v, %v; want the schema default", x, ok)
	}
	if club, _ := legacy.Rows[0].String("club"); club != "KC" {
		t.Errorf("club = %q", club)
	}

	// Null round trip: the ball row has no nflId, the NA speed is null.
	play, err := p.FetchPlay(ctx, 2023090700, 56)
	if err != nil {
		t.Fatal(err)
	}
	if play.NumRows() != 3 {
		t.Fatalf("play 56 rows = %d", play.NumRows())
	}
	nullIDs := 0
	for _, row := range play.Rows {
		if row.IsNull(types.ColNFLID) {
			nullIDs++
		}
	}
	if nullIDs != 1 {
		t.Errorf("null nflId rows = %d", nullIDs)
	}

	na, err := p.FetchPlay(ctx, 2023091100, 33)
	if err != nil {
		t.Fatal(err)
	}
	if na.NumRows() != 1 || !na.Rows[0].IsNull("s") {
		t.Errorf("NA speed should be null: %v", na.Rows)
	}
}

func TestPipelineSamplingAndExport(t *testing.T) {
	cfg, inputDir := setupEnv(t)
	ctx := context.Background()
	runIngest(t, cfg, inputDir)
	p := openPool(t, cfg)

	// 4 plays exist in total.
	keys, err := p.Lazy().DistinctPlayKeys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 4 {
		t.Fatalf("keys = %v", keys)
	}

	first, firstReport, err := p.SamplePlays(ctx, 2, nil, 99)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := p.SamplePlays(ctx, 2, nil, 99)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.DistinctPlayKeys(), second.DistinctPlayKeys()) {
		t.Error("sampling is not deterministic for a fixed seed")
	}
	if firstReport.Returned != 2 || firstReport.Undersupplied {
		t.Errorf("report = %+v", firstReport)
	}

	// Oversampling returns the whole population, flagged.
	all, allReport, err := p.SamplePlays(ctx, 100, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !allReport.Undersupplied || allReport.Returned != 4 {
		t.Errorf("report = %+v", allReport)
	}
	if all.NumRows() != 9 {
		t.Errorf("rows = %d", all.NumRows())
	}

	// Filtered sampling stays inside the filter.
	sf, sfReport, err := p.SamplePlays(ctx, 10, []pool.Predicate{pool.StringEq("club", "SF")}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if sfReport.AvailableKeys != 2 {
		t.Errorf("AvailableKeys = %d", sfReport.AvailableKeys)
	}
	for _, row := range sf.Rows {
		if club, _ := row.String("club"); club != "SF" {
			t.Fatalf("row outside filter: %v", row)
		}
	}

	var buf bytes.Buffer
	if err := pool.ExportCSV(&buf, sf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != sf.NumRows()+1 {
		t.Errorf("csv lines = %d, rows = %d", len(lines), sf.NumRows())
	}
	if lines[0] != "gameId,playId,frameId,nflId,x,y,s,club,event" {
		t.Errorf("header = %s", lines[0])
	}
}

func TestPipelineCatalogAndArchive(t *testing.T) {
	cfg, inputDir := setupEnv(t)
	ctx := context.Background()
	report := runIngest(t, cfg, inputDir)

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	records, err := cat.ListPartitions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("catalog records = %d", len(records))
	}

	run, err := cat.GetRun(ctx, report.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.FinishedAt == nil || run.RowsWritten != 9 {
		t.Errorf("run record = %+v", run)
	}

	// Local archive mirrors the pool layout.
	archived := filepath.Join(cfg.Archive.Path,
		"season=2023", "gameId=2023090700", "tracking.parquet")
	if _, err := os.Stat(archived); err != nil {
		t.Errorf("archived partition missing: %v", err)
	}
	sidecar := filepath.Join(cfg.Archive.Path,
		"season=2023", "gameId=2023090700", "plays.bloom")
	if _, err := os.Stat(sidecar); err != nil {
		t.Errorf("archived sidecar missing: %v", err)
	}
}

func TestPipelineReIngestIsIdempotent(t *testing.T) {
	cfg, inputDir := setupEnv(t)
	ctx := context.Background()

	runIngest(t, cfg, inputDir)
	second := runIngest(t, cfg, inputDir)
	if len(second.Failures) != 0 {
		t.Fatalf("re-ingest failures: %+v", second.Failures)
	}

	p := openPool(t, cfg)
	if len(p.Files()) != 3 {
		t.Errorf("pool files after re-ingest = %d", len(p.Files()))
	}

	table, err := p.Lazy().Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 9 {
		t.Errorf("rows after re-ingest = %d, want no duplicates", table.NumRows())
	}

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	records, err := cat.ListPartitions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Errorf("catalog records after re-ingest = %d", len(records))
	}
}

func TestPipelineDiagnose(t *testing.T) {
	cfg, inputDir := setupEnv(t)
	ctx := context.Background()
	runIngest(t, cfg, inputDir)
	p := openPool(t, cfg)

	report, err := p.Diagnose(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 3 || report.Corrupt != 0 {
		t.Fatalf("diagnose = %+v", report)
	}
	if report.TotalRows != 9 {
		t.Errorf("TotalRows = %d", report.TotalRows)
	}
	for _, file := range report.Files {
		if !file.HasSidecar {
			t.Errorf("missing sidecar: %s", file.RelPath)
		}
	}
}
