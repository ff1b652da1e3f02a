package types

import "sort"

// Table is a materialized set of rows with a fixed column order.
// It is the result type of Collect and SamplePlays, and the input to
// the partitioned writer.
type Table struct {
	// Columns is the ordered list of column names, matching the schema
	// declaration order for normalized tables.
	Columns []string

	// Rows holds the table data.
	Rows []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row to the table.
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// DistinctPlayKeys returns the distinct (gameId, playId) keys present in
// the table, in ascending order. Rows with a null gameId or playId are
// skipped: a record without play identity cannot belong to a play.
func (t *Table) DistinctPlayKeys() []PlayKey {
	seen := make(map[PlayKey]struct{})
	for _, row := range t.Rows {
		gameID, ok := row.GameID()
		if !ok {
			continue
		}
		playID, ok := row.PlayID()
		if !ok {
			continue
		}
		seen[PlayKey{GameID: gameID, PlayID: playID}] = struct{}{}
	}
	keys := make([]PlayKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	SortPlayKeys(keys)
	return keys
}

// DistinctGameIDs returns the distinct non-null gameIds in ascending order.
func (t *Table) DistinctGameIDs() []int64 {
	seen := make(map[int64]struct{})
	for _, row := range t.Rows {
		if id, ok := row.GameID(); ok {
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

// SortByFrame orders rows by (gameId, playId, frameId). Null identity
// columns sort first. This is the playback order the visualization
// consumer expects.
func (t *Table) SortByFrame() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		gi, _ := t.Rows[i].GameID()
		gj, _ := t.Rows[j].GameID()
		if gi != gj {
			return gi < gj
		}
		pi, _ := t.Rows[i].PlayID()
		pj, _ := t.Rows[j].PlayID()
		if pi != pj {
			return pi < pj
		}
		fi, _ := t.Rows[i].FrameID()
		fj, _ := t.Rows[j].FrameID()
		return fi < fj
	})
}
