package chains

import (
	"context"

	"github.com/sisu-network/flashrace/types"
)

type MockBlockSource struct {
	LatestBlockFunc func(ctx context.Context) (*types.BlockSnapshot, error)
}

func (m *MockBlockSource) LatestBlock(ctx context.Context) (*types.BlockSnapshot, error) {
	if m.LatestBlockFunc != nil {
		return m.LatestBlockFunc(ctx)
	}

	return nil, types.ErrEmptyHead
}

type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, rawTx []byte) (*types.TransactionHandle, error)
}

func (d *MockDispatcher) Dispatch(ctx context.Context, rawTx []byte) (*types.TransactionHandle, error) {
	if d.DispatchFunc != nil {
		return d.DispatchFunc(ctx, rawTx)
	}

	return nil, nil
}
