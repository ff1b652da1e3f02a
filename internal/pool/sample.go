package pool

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/gridiron/gridiron/pkg/types"
)

// SampleReport describes the outcome of one sampling call.
type SampleReport struct {
	Requested     int
	Returned      int
	AvailableKeys int
	Undersupplied bool
	Seed          int64
}

// SamplePlays returns every frame of n distinct plays drawn uniformly
// from the plays that survive the filters. The pool is streamed twice:
// a key pass that retains only the distinct (gameId, playId) pairs, and
// a join-back pass that keeps only the sampled plays' frames, so
// resident memory is bounded by the key population plus the sample,
// never the pool. The draw is deterministic for a given seed and play
// population: candidate keys are sorted before the seeded shuffle, so
// the outcome does not depend on file discovery order. When fewer than
// n plays are available, all of them are returned and the report is
// marked undersupplied.
func (p *Pool) SamplePlays(ctx context.Context, n int, preds []Predicate, seed int64) (*types.Table, *SampleReport, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("pool: sample size must be positive, got %d", n)
	}

	scan := p.Lazy().Filter(preds...)
	keys, err := scan.scanKeys(ctx, "sample_plays")
	if err != nil {
		return nil, nil, err
	}

	report := &SampleReport{
		Requested:     n,
		AvailableKeys: len(keys),
		Seed:          seed,
	}

	var chosen []types.PlayKey
	if len(keys) <= n {
		if len(keys) < n {
			report.Undersupplied = true
			log.Printf("pool: requested %d plays but only %d available, returning all", n, len(keys))
		}
		chosen = keys
	} else {
		// keys is already sorted; shuffle a copy and take the head.
		shuffled := make([]types.PlayKey, len(keys))
		copy(shuffled, keys)
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		chosen = shuffled[:n]
	}

	selected := make(map[types.PlayKey]struct{}, len(chosen))
	for _, key := range chosen {
		selected[key] = struct{}{}
	}

	member := Fn(types.ColGameID, func(row types.Row) bool {
		gameID, okG := row.GameID()
		playID, okP := row.PlayID()
		if !okG || !okP {
			return false
		}
		_, ok := selected[types.PlayKey{GameID: gameID, PlayID: playID}]
		return ok
	})
	result, err := scan.Filter(member).collect(ctx, "sample_plays")
	if err != nil {
		return nil, nil, err
	}
	result.SortByFrame()

	report.Returned = len(chosen)
	return result, report, nil
}
