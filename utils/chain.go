package utils

import (
	"github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
)

// TxSender recovers the sender of a signed transaction using the chain id it was signed for.
func TxSender(tx *etypes.Transaction) (common.Address, error) {
	return etypes.Sender(etypes.LatestSignerForChainID(tx.ChainId()), tx)
}
