package eth

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sisu-network/flashrace/types"
)

// RpcBlock is the subset of eth_getBlockByNumber(tag, false) we need. Pending blocks may come
// without a hash, so the fields are pointers.
type RpcBlock struct {
	Number       *hexutil.Uint64 `json:"number"`
	Hash         *common.Hash    `json:"hash"`
	Timestamp    hexutil.Uint64  `json:"timestamp"`
	Transactions []common.Hash   `json:"transactions"`
}

func (b *RpcBlock) toSnapshot() (*types.BlockSnapshot, error) {
	if b == nil || b.Number == nil {
		return nil, types.ErrEmptyHead
	}

	var hash common.Hash
	if b.Hash != nil {
		hash = *b.Hash
	}

	return types.NewBlockSnapshot(uint64(*b.Number), hash, uint64(b.Timestamp), b.Transactions), nil
}
