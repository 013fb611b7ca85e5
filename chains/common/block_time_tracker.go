package common

import (
	"sync"
	"time"
)

const (
	MaxTrackSize = 5
)

// BlockTimeTracker measures the interval between new blocks as seen by one poller. It averages
// over the last MaxTrackSize samples.
type BlockTimeTracker struct {
	lock       *sync.RWMutex
	lastNumber uint64
	lastSeen   time.Time
	samples    []time.Duration
}

func NewBlockTimeTracker() *BlockTimeTracker {
	return &BlockTimeTracker{
		lock:    &sync.RWMutex{},
		samples: make([]time.Duration, 0, MaxTrackSize),
	}
}

// NewBlock is called when a block with a higher number than the previous one is observed.
func (t *BlockTimeTracker) NewBlock(number uint64, seenAt time.Time) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.lastSeen.IsZero() {
		t.lastNumber, t.lastSeen = number, seenAt
		return
	}

	if number <= t.lastNumber || seenAt.Before(t.lastSeen) {
		return
	}

	// Several blocks may have been produced between two polls.
	perBlock := seenAt.Sub(t.lastSeen) / time.Duration(number-t.lastNumber)
	t.samples = append(t.samples, perBlock)
	if len(t.samples) > MaxTrackSize {
		t.samples = t.samples[1:]
	}

	t.lastNumber, t.lastSeen = number, seenAt
}

// GetBlockTime returns the average observed block time in milliseconds, 0 when unknown.
func (t *BlockTimeTracker) GetBlockTime() int {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if len(t.samples) == 0 {
		return 0
	}

	var total time.Duration
	for _, s := range t.samples {
		total += s
	}

	return int((total / time.Duration(len(t.samples))).Milliseconds())
}
