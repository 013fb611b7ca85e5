package eth

import (
	"context"
	"fmt"
	"strings"
	"time"

	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/flashrace/utils"
	"github.com/sisu-network/lib/log"
)

type EthDispatcher struct {
	cadence string
	client  EthClient
	now     func() time.Time
}

func NewEthDispatcher(cadence string, client EthClient) *EthDispatcher {
	return &EthDispatcher{
		cadence: cadence,
		client:  client,
		now:     time.Now,
	}
}

func (d *EthDispatcher) Dispatch(ctx context.Context, rawTx []byte) (*types.TransactionHandle, error) {
	tx := &ethtypes.Transaction{}
	if err := tx.UnmarshalBinary(rawTx); err != nil {
		log.Error("Failed to unmarshal ETH transaction, err = ", err)
		return nil, fmt.Errorf("cannot decode raw transaction: %w", err)
	}

	if from, err := utils.TxSender(tx); err == nil {
		log.Debug("Dispatching tx ", tx.Hash(), " from ", from, " nonce = ", tx.Nonce())
	}

	err := d.client.SendTransaction(ctx, tx)
	if err != nil && !strings.Contains(err.Error(), "already known") {
		log.Error("Failed to dispatch tx, err = ", err)
		return nil, fmt.Errorf("cannot broadcast tx %s on %s: %w", tx.Hash(), d.cadence, err)
	}

	// "already known" means the node has the tx from an earlier submission. Ethereum does not
	// return error codes in its JSON RPC, so we rely on string matching.
	handle := &types.TransactionHandle{
		Hash:        tx.Hash(),
		BroadcastAt: d.now(),
	}
	log.Debug("Tx is dispatched on ", d.cadence, " txHash = ", handle.Hash)

	return handle, nil
}
