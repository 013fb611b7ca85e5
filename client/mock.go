package client

import (
	"context"

	"github.com/sisu-network/flashrace/types"
)

type MockClient struct {
	TryDialFunc             func(ctx context.Context) error
	MintTransactionTimeFunc func(ctx context.Context, elapsedMs int64) (*types.MintResult, error)
}

func (c *MockClient) TryDial(ctx context.Context) error {
	if c.TryDialFunc != nil {
		return c.TryDialFunc(ctx)
	}

	return nil
}

func (c *MockClient) MintTransactionTime(ctx context.Context, elapsedMs int64) (*types.MintResult, error) {
	if c.MintTransactionTimeFunc != nil {
		return c.MintTransactionTimeFunc(ctx, elapsedMs)
	}

	return &types.MintResult{}, nil
}

func (c *MockClient) Close() {}
