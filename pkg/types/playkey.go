package types

import "sort"

// PlayKey identifies one play: a (gameId, playId) pair. A play is the
// natural sampling and playback unit; frames are never sampled alone.
type PlayKey struct {
	GameID int64
	PlayID int64
}

// Less orders keys by gameId, then playId.
func (k PlayKey) Less(other PlayKey) bool {
	if k.GameID != other.GameID {
		return k.GameID < other.GameID
	}
	return k.PlayID < other.PlayID
}

// SortPlayKeys sorts keys in ascending (gameId, playId) order.
func SortPlayKeys(keys []PlayKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
