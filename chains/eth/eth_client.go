package eth

import (
	"context"
	"fmt"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sisu-network/lib/log"
)

type NoHealthyClientErr struct {
	rpcs []string
	last error
}

func NewNoHealthyClientErr(rpcs []string, last error) error {
	return &NoHealthyClientErr{rpcs: rpcs, last: last}
}

func (e *NoHealthyClientErr) Error() string {
	return fmt.Sprintf("no healthy client among %v, last err = %v", e.rpcs, e.last)
}

func (e *NoHealthyClientErr) Unwrap() error {
	return e.last
}

// EthClient A wrapper around the go-ethereum rpc client so that we can mock in tests.
type EthClient interface {
	// HeadBlock returns the block at tag ("latest" or "pending") with transaction hashes only.
	// Full transactions are never decoded, so chains with custom tx types (e.g. OP deposits) work.
	HeadBlock(ctx context.Context, tag string) (*RpcBlock, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	Close()
}

type defaultEthClient struct {
	rpcs    []string
	clients []*rpc.Client
}

// NewEthClients dials every rpc and keeps the ones that answer. Calls go to the clients in order
// until one succeeds.
func NewEthClients(ctx context.Context, rpcs []string) (EthClient, error) {
	c := &defaultEthClient{}

	for _, url := range rpcs {
		client, err := rpc.DialContext(ctx, url)
		if err != nil {
			log.Error("Cannot dial rpc ", url, ", err = ", err)
			continue
		}

		log.Info("Adding eth client at rpc: ", url)
		c.rpcs = append(c.rpcs, url)
		c.clients = append(c.clients, client)
	}

	if len(c.clients) == 0 {
		return nil, NewNoHealthyClientErr(rpcs, nil)
	}

	return c, nil
}

func (c *defaultEthClient) execute(f func(client *rpc.Client) error) error {
	var err error
	for i, client := range c.clients {
		if err = f(client); err == nil {
			return nil
		}

		log.Verbose("Call to rpc ", c.rpcs[i], " failed, err = ", err)
	}

	return NewNoHealthyClientErr(c.rpcs, err)
}

func (c *defaultEthClient) HeadBlock(ctx context.Context, tag string) (*RpcBlock, error) {
	var block *RpcBlock
	err := c.execute(func(client *rpc.Client) error {
		block = nil
		return client.CallContext(ctx, &block, "eth_getBlockByNumber", tag, false)
	})

	return block, err
}

func (c *defaultEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	return c.execute(func(client *rpc.Client) error {
		return ethclient.NewClient(client).SendTransaction(ctx, tx)
	})
}

func (c *defaultEthClient) Close() {
	for _, client := range c.clients {
		client.Close()
	}
}
