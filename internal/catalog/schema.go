package catalog

// partitionsSchemaSQL defines the partition manifest table. The primary
// key is the game: re-ingesting a game replaces its row, mirroring the
// writer's replace-on-rewrite behavior for the partition file itself.
const partitionsSchemaSQL = `
CREATE TABLE IF NOT EXISTS partitions (
	game_id    INTEGER PRIMARY KEY,
	season     TEXT NOT NULL,
	path       TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	play_count INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL,
	run_id     TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

const seasonIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_partitions_season ON partitions(season)`

// runsSchemaSQL records ingestion runs for provenance.
const runsSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER,
	files_total  INTEGER NOT NULL DEFAULT 0,
	files_failed INTEGER NOT NULL DEFAULT 0,
	rows_written INTEGER NOT NULL DEFAULT 0
)`

// AllSchemaSQL returns all DDL statements in execution order.
func AllSchemaSQL() []string {
	return []string{
		partitionsSchemaSQL,
		seasonIndexSQL,
		runsSchemaSQL,
	}
}
