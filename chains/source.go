package chains

import (
	"context"

	"github.com/sisu-network/flashrace/types"
)

// BlockSource fetches the current chain head for one cadence. Implementations must return
// types.ErrEmptyHead rather than a nil block when the node has nothing to report.
type BlockSource interface {
	LatestBlock(ctx context.Context) (*types.BlockSnapshot, error)
}
