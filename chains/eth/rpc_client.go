package eth

import (
	"context"
	"fmt"

	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/lib/log"
	"github.com/ybbus/jsonrpc/v3"
)

// jsonRpcBlockFetcher reads the chain head with plain JSON-RPC calls, without a go-ethereum
// client. Flashblock-aware nodes expose the 200ms state under the "pending" tag.
type jsonRpcBlockFetcher struct {
	cadence string
	tag     string
	rpcs    []string
	clients []jsonrpc.RPCClient
}

func newJsonRpcBlockFetcher(cadence, tag string, rpcs []string) *jsonRpcBlockFetcher {
	clients := make([]jsonrpc.RPCClient, 0, len(rpcs))
	for _, rpc := range rpcs {
		log.Info("Adding json rpc client at rpc: ", rpc)
		clients = append(clients, jsonrpc.NewClient(rpc))
	}

	return &jsonRpcBlockFetcher{
		cadence: cadence,
		tag:     tag,
		rpcs:    rpcs,
		clients: clients,
	}
}

func (f *jsonRpcBlockFetcher) LatestBlock(ctx context.Context) (*types.BlockSnapshot, error) {
	var err error
	for i, client := range f.clients {
		var block *RpcBlock
		block, err = f.getBlock(ctx, client)
		if err == nil {
			return block.toSnapshot()
		}

		log.Verbose("Call to rpc ", f.rpcs[i], " failed, err = ", err)
	}

	return nil, fmt.Errorf("cannot get %s block for %s: %w", f.tag, f.cadence,
		NewNoHealthyClientErr(f.rpcs, err))
}

func (f *jsonRpcBlockFetcher) getBlock(ctx context.Context, client jsonrpc.RPCClient) (*RpcBlock, error) {
	response, err := client.Call(ctx, "eth_getBlockByNumber", f.tag, false)
	if err != nil {
		return nil, err
	}

	if response.Error != nil {
		return nil, response.Error
	}

	if response.Result == nil {
		return nil, nil
	}

	block := &RpcBlock{}
	if err := response.GetObject(block); err != nil {
		return nil, err
	}

	return block, nil
}
