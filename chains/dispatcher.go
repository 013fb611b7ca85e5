package chains

import (
	"context"

	"github.com/sisu-network/flashrace/types"
)

// Dispatcher broadcasts transactions that were signed elsewhere and stamps the moment the node
// accepted them.
type Dispatcher interface {
	Dispatch(ctx context.Context, rawTx []byte) (*types.TransactionHandle, error)
}
