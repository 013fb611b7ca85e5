package client

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/lib/log"
	"go.uber.org/atomic"
)

const (
	RetryTime = 10 * time.Second
)

// Client talks to the minting service that records a measured confirmation time on chain.
type Client interface {
	TryDial(ctx context.Context) error
	MintTransactionTime(ctx context.Context, elapsedMs int64) (*types.MintResult, error)
	Close()
}

var (
	ErrMintServerNotConnected = errors.New("mint server is not connected")
)

type DefaultClient struct {
	client    *rpc.Client
	url       string
	retryTime time.Duration
	connected *atomic.Bool
}

func NewClient(url string) *DefaultClient {
	return &DefaultClient{
		url:       url,
		retryTime: RetryTime,
		connected: atomic.NewBool(false),
	}
}

// TryDial keeps dialing the mint server until it succeeds or ctx is done.
func (c *DefaultClient) TryDial(ctx context.Context) error {
	log.Info("Trying to dial mint server")

	for {
		log.Info("Dialing...", c.url)
		client, err := rpc.DialContext(ctx, c.url)
		if err == nil {
			c.client = client
			c.connected.Store(true)
			break
		}

		log.Error("Cannot connect to mint server err = ", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryTime):
		}
	}

	log.Info("Mint server is connected")
	return nil
}

func (c *DefaultClient) MintTransactionTime(ctx context.Context, elapsedMs int64) (*types.MintResult, error) {
	if !c.connected.Load() {
		return nil, ErrMintServerNotConnected
	}

	log.Verbose("Minting transaction time ", elapsedMs, " ms")

	result := &types.MintResult{}
	err := c.client.CallContext(ctx, result, "mint_mintTransactionTime", elapsedMs)
	if err != nil {
		log.Error("Cannot mint transaction time, err = ", err)
		return nil, err
	}

	return result, nil
}

func (c *DefaultClient) Close() {
	if c.connected.CAS(true, false) {
		c.client.Close()
	}
}
