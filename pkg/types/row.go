package types

// Row is one canonical tracking record: column name → typed value.
// Values are int64, float64, string, or bool per the schema dtype.
// A missing key or a nil value both mean null.
type Row map[string]interface{}

// Well-known canonical column names. The schema config may declare more
// columns, but these four carry the identity of a tracking record.
const (
	ColGameID  = "gameId"
	ColPlayID  = "playId"
	ColFrameID = "frameId"
	ColNFLID   = "nflId"
)

// Int64 returns the named column as int64. ok is false when the column
// is null, absent, or not an integer.
func (r Row) Int64(col string) (int64, bool) {
	v, exists := r[col]
	if !exists || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}

// Float64 returns the named column as float64. ok is false when the
// column is null, absent, or not numeric.
func (r Row) Float64(col string) (float64, bool) {
	v, exists := r[col]
	if !exists || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String returns the named column as a string. ok is false when the
// column is null, absent, or not a string.
func (r Row) String(col string) (string, bool) {
	v, exists := r[col]
	if !exists || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IsNull reports whether the named column is null or absent.
func (r Row) IsNull(col string) bool {
	v, exists := r[col]
	return !exists || v == nil
}

// GameID returns the row's gameId. ok is false for rows with no game identity.
func (r Row) GameID() (int64, bool) { return r.Int64(ColGameID) }

// PlayID returns the row's playId.
func (r Row) PlayID() (int64, bool) { return r.Int64(ColPlayID) }

// FrameID returns the row's frameId.
func (r Row) FrameID() (int64, bool) { return r.Int64(ColFrameID) }
