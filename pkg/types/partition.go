package types

// PartitionKey identifies the on-disk partition a canonical record
// belongs to. Season is derived from a fixed-width prefix of the gameId
// and may be empty when season nesting is disabled.
type PartitionKey struct {
	// Season is the season directory component (e.g. "2023"), empty for
	// the flat layout.
	Season string `json:"season,omitempty"`

	// GameID is the mandatory partition key column.
	GameID int64 `json:"game_id"`
}

// KeyConfig holds configuration for partition key derivation.
//
// The season = first-4-digits-of-gameId convention is inferred from the
// data, not a documented invariant of the source exports, so both the
// prefix width and the nesting itself are configurable.
type KeyConfig struct {
	// SeasonPrefixLen is the number of leading decimal digits of gameId
	// used as the season component (default 4).
	SeasonPrefixLen int `json:"season_prefix_len" yaml:"season_prefix_len"`

	// Nested controls whether partitions are laid out as
	// season=<YYYY>/gameId=<id>/ (true) or the flat gameId=<id>/ (false).
	Nested bool `json:"nested" yaml:"nested"`
}

// DefaultKeyConfig returns the conventional nested layout with a
// four-digit season prefix.
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{SeasonPrefixLen: 4, Nested: true}
}
