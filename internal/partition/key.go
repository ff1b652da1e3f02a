// Package partition provides partition key derivation and the
// idempotent partitioned parquet writer for the Gridiron pool.
package partition

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridiron/gridiron/pkg/types"
)

// FileName is the well-known partition filename. Any reader that can
// glob and read parquet can consume the pool; the layout is a directory
// convention, not a protocol.
const FileName = "tracking.parquet"

// DeriveKey computes the partition key for a gameId under the given
// layout configuration. The season component is a fixed-width decimal
// prefix of the gameId (e.g. 2023090700 → "2023"); gameIds too short to
// carry the prefix fall back to the flat layout for that game.
func DeriveKey(gameID int64, cfg types.KeyConfig) types.PartitionKey {
	key := types.PartitionKey{GameID: gameID}
	if !cfg.Nested {
		return key
	}

	digits := strconv.FormatInt(gameID, 10)
	if gameID >= 0 && len(digits) >= cfg.SeasonPrefixLen {
		key.Season = digits[:cfg.SeasonPrefixLen]
	}
	return key
}

// Dir returns the partition directory path relative to the pool root:
// season=<YYYY>/gameId=<id> for the nested layout, gameId=<id> flat.
func Dir(key types.PartitionKey) string {
	game := fmt.Sprintf("gameId=%d", key.GameID)
	if key.Season == "" {
		return game
	}
	return filepath.Join("season="+key.Season, game)
}

// Path returns the partition file path relative to the pool root.
func Path(key types.PartitionKey) string {
	return filepath.Join(Dir(key), FileName)
}

// GameIDFromPath extracts the gameId encoded in a partition file path.
// ok is false for paths that do not follow the gameId=<id> convention;
// such files are still readable, they just cannot be pruned by key.
func GameIDFromPath(path string) (int64, bool) {
	dir := filepath.Base(filepath.Dir(path))
	if !strings.HasPrefix(dir, "gameId=") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(dir, "gameId="), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
