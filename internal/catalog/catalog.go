// Package catalog maintains the partition manifest in a SQLite
// database beside the pool. The manifest is advisory metadata for
// operators and diagnostics; the pool directory itself remains the
// source of truth for what data exists.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	gerrors "github.com/gridiron/gridiron/internal/errors"
	"github.com/gridiron/gridiron/internal/partition"
)

// PartitionRecord is one manifest row describing a written partition.
type PartitionRecord struct {
	GameID    int64
	Season    string
	Path      string
	RowCount  int64
	PlayCount int64
	SizeBytes int64
	RunID     string
	CreatedAt time.Time
}

// RunRecord summarizes one ingestion run.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  *time.Time
	FilesTotal  int64
	FilesFailed int64
	RowsWritten int64
}

// Stats aggregates the manifest for diagnostics.
type Stats struct {
	PartitionCount int64
	SeasonCount    int64
	TotalRows      int64
	TotalPlays     int64
	TotalBytes     int64
}

// Catalog is the partition manifest store.
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex // serializes writes; SQLite has a single writer

	upsertStmt *sql.Stmt
}

// Open opens (creating if needed) the manifest database at dbPath.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCategoryCatalog, gerrors.CodeCatalogUnavailable,
			fmt.Sprintf("failed to open manifest database %s", dbPath), err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Catalog{db: db, dbPath: dbPath}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, gerrors.Wrap(gerrors.ErrCategoryCatalog, gerrors.CodeCatalogUnavailable,
			"failed to initialize manifest schema", err)
	}

	upsert, err := db.Prepare(`
		INSERT OR REPLACE INTO partitions (
			game_id, season, path, row_count, play_count, size_bytes, run_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, gerrors.Wrap(gerrors.ErrCategoryCatalog, gerrors.CodeCatalogUnavailable,
			"failed to prepare upsert statement", err)
	}
	c.upsertStmt = upsert

	return c, nil
}

func (c *Catalog) initSchema() error {
	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// RegisterPartition records a written partition, replacing any earlier
// manifest row for the same game. Replacement mirrors the on-disk
// overwrite: the old row described a file that no longer exists.
func (c *Catalog) RegisterPartition(ctx context.Context, info *partition.Info, runID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.upsertStmt.ExecContext(ctx,
		info.Key.GameID, info.Key.Season, info.Path,
		info.RowCount, info.PlayCount, info.SizeBytes,
		runID, info.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("catalog: failed to register partition gameId=%d: %w", info.Key.GameID, err)
	}
	return nil
}

// StartRun records the beginning of an ingestion run.
func (c *Catalog) StartRun(ctx context.Context, runID string, startedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO runs (run_id, started_at) VALUES (?, ?)",
		runID, startedAt.Unix())
	if err != nil {
		return fmt.Errorf("catalog: failed to record run start: %w", err)
	}
	return nil
}

// FinishRun records the outcome of an ingestion run.
func (c *Catalog) FinishRun(ctx context.Context, runID string, filesTotal, filesFailed, rowsWritten int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, files_total = ?, files_failed = ?, rows_written = ?
		 WHERE run_id = ?`,
		time.Now().Unix(), filesTotal, filesFailed, rowsWritten, runID)
	if err != nil {
		return fmt.Errorf("catalog: failed to record run finish: %w", err)
	}
	return nil
}

// GetPartition retrieves the manifest row for one game. Returns nil
// with no error when the game is not registered.
func (c *Catalog) GetPartition(ctx context.Context, gameID int64) (*PartitionRecord, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT game_id, season, path, row_count, play_count, size_bytes, run_id, created_at
		FROM partitions WHERE game_id = ?`, gameID)

	record, err := scanPartitionRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to get partition gameId=%d: %w", gameID, err)
	}
	return record, nil
}

// ListPartitions returns all manifest rows ordered by season and game.
func (c *Catalog) ListPartitions(ctx context.Context) ([]*PartitionRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT game_id, season, path, row_count, play_count, size_bytes, run_id, created_at
		FROM partitions ORDER BY season, game_id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list partitions: %w", err)
	}
	defer rows.Close()

	var records []*PartitionRecord
	for rows.Next() {
		record, err := scanPartitionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: failed to scan partition: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: error iterating partitions: %w", err)
	}
	return records, nil
}

// ListSeasons returns the distinct seasons present in the manifest.
func (c *Catalog) ListSeasons(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT DISTINCT season FROM partitions ORDER BY season")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("catalog: failed to scan season: %w", err)
		}
		seasons = append(seasons, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: error iterating seasons: %w", err)
	}
	return seasons, nil
}

// GetStats aggregates the manifest.
func (c *Catalog) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT season),
			COALESCE(SUM(row_count), 0), COALESCE(SUM(play_count), 0), COALESCE(SUM(size_bytes), 0)
		FROM partitions`).Scan(
		&stats.PartitionCount, &stats.SeasonCount,
		&stats.TotalRows, &stats.TotalPlays, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to aggregate stats: %w", err)
	}
	return &stats, nil
}

// GetRun retrieves one ingestion run record, nil when absent.
func (c *Catalog) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	var record RunRecord
	var startedAt int64
	var finishedAt sql.NullInt64

	err := c.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, files_total, files_failed, rows_written
		FROM runs WHERE run_id = ?`, runID).Scan(
		&record.RunID, &startedAt, &finishedAt,
		&record.FilesTotal, &record.FilesFailed, &record.RowsWritten)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to get run %s: %w", runID, err)
	}

	record.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0)
		record.FinishedAt = &t
	}
	return &record, nil
}

// Close closes the manifest database.
func (c *Catalog) Close() error {
	if c.upsertStmt != nil {
		c.upsertStmt.Close()
	}
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPartitionRecord(row rowScanner) (*PartitionRecord, error) {
	var record PartitionRecord
	var createdAtUnix int64

	err := row.Scan(
		&record.GameID, &record.Season, &record.Path,
		&record.RowCount, &record.PlayCount, &record.SizeBytes,
		&record.RunID, &createdAtUnix)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = time.Unix(createdAtUnix, 0)
	return &record, nil
}
