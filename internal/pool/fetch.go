package pool

import (
	"context"

	"github.com/gridiron/gridiron/pkg/types"
)

// FetchPlay returns all frames of one play ordered by frameId. The
// scan is pruned to the play's partition by directory key and by the
// playId bloom sidecar, so a fetch normally reads a single file.
func (p *Pool) FetchPlay(ctx context.Context, gameID, playID int64) (*types.Table, error) {
	table, err := p.Lazy().
		Filter(Int64Eq(types.ColGameID, gameID), Int64Eq(types.ColPlayID, playID)).
		collect(ctx, "fetch_play")
	if err != nil {
		return nil, err
	}
	table.SortByFrame()
	return table, nil
}
