package eth

import (
	"context"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type MockEthClient struct {
	HeadBlockFunc       func(ctx context.Context, tag string) (*RpcBlock, error)
	SendTransactionFunc func(ctx context.Context, tx *ethtypes.Transaction) error
}

func (c *MockEthClient) HeadBlock(ctx context.Context, tag string) (*RpcBlock, error) {
	if c.HeadBlockFunc != nil {
		return c.HeadBlockFunc(ctx, tag)
	}

	return nil, nil
}

func (c *MockEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if c.SendTransactionFunc != nil {
		return c.SendTransactionFunc(ctx, tx)
	}

	return nil
}

func (c *MockEthClient) Close() {}
