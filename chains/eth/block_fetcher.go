package eth

import (
	"context"
	"fmt"

	"github.com/sisu-network/flashrace/chains"
	"github.com/sisu-network/flashrace/config"
	"github.com/sisu-network/flashrace/types"
)

// blockFetcher reads the chain head through the go-ethereum rpc client.
type blockFetcher struct {
	cadence string
	tag     string
	client  EthClient
}

func newBlockFetcher(cadence, tag string, client EthClient) *blockFetcher {
	return &blockFetcher{
		cadence: cadence,
		tag:     tag,
		client:  client,
	}
}

func (bf *blockFetcher) LatestBlock(ctx context.Context) (*types.BlockSnapshot, error) {
	block, err := bf.client.HeadBlock(ctx, bf.tag)
	if err != nil {
		return nil, fmt.Errorf("cannot get %s block for %s: %w", bf.tag, bf.cadence, err)
	}

	return block.toSnapshot()
}

// NewBlockSource builds the block source configured for a cadence. The returned EthClient is
// nil for the jsonrpc client type.
func NewBlockSource(ctx context.Context, cfg config.Cadence) (chains.BlockSource, EthClient, error) {
	switch cfg.ClientType {
	case config.ClientTypeEthClient:
		client, err := NewEthClients(ctx, cfg.Rpcs)
		if err != nil {
			return nil, nil, err
		}
		return newBlockFetcher(cfg.Label, cfg.BlockTag, client), client, nil

	case config.ClientTypeJsonRpc:
		return newJsonRpcBlockFetcher(cfg.Label, cfg.BlockTag, cfg.Rpcs), nil, nil
	}

	return nil, nil, types.NewConfigError("client_type", "unknown client type %q", cfg.ClientType)
}
