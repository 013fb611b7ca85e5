package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// A data model that represents the latest block seen by one poller.
type BlockSnapshot struct {
	Number uint64      `json:"number"`
	Hash   common.Hash `json:"hash"`
	// Local time at which the poll response carrying this block was received.
	Timestamp time.Time `json:"timestamp"`
	// Unix time from the block header.
	HeaderTime uint64 `json:"header_time"`

	txHashes map[common.Hash]struct{}
}

func NewBlockSnapshot(number uint64, hash common.Hash, headerTime uint64, txHashes []common.Hash) *BlockSnapshot {
	set := make(map[common.Hash]struct{}, len(txHashes))
	for _, h := range txHashes {
		set[h] = struct{}{}
	}

	return &BlockSnapshot{
		Number:     number,
		Hash:       hash,
		HeaderTime: headerTime,
		txHashes:   set,
	}
}

// WithTimestamp returns a copy of the snapshot observed at t. The tx hash set is shared since it
// is never mutated after construction.
func (b *BlockSnapshot) WithTimestamp(t time.Time) *BlockSnapshot {
	cp := *b
	cp.Timestamp = t
	return &cp
}

func (b *BlockSnapshot) Contains(hash common.Hash) bool {
	if b == nil {
		return false
	}

	_, ok := b.txHashes[hash]
	return ok
}

func (b *BlockSnapshot) TxCount() int {
	if b == nil {
		return 0
	}

	return len(b.txHashes)
}

// TransactionHandle is created once, when a signed transaction has been accepted for broadcast.
type TransactionHandle struct {
	Hash        common.Hash `json:"hash"`
	BroadcastAt time.Time   `json:"broadcast_at"`
}
