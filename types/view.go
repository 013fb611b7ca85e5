package types

// CadenceView is what the presenter shows for one cadence.
type CadenceView struct {
	Title       string `json:"title"`
	Label       string `json:"label"`
	IntervalMs  int    `json:"interval_ms"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash,omitempty"`
	TxCount     int    `json:"tx_count"`
	IsLoading   bool   `json:"is_loading"`
	Error       string `json:"error,omitempty"`
	// Average interval between new blocks as observed by the poller.
	ObservedBlockTimeMs int `json:"observed_block_time_ms"`

	LastElapsedMs *int64 `json:"last_elapsed_ms,omitempty"`
	ClockSkew     bool   `json:"clock_skew,omitempty"`
	Unavailable   bool   `json:"unavailable,omitempty"`
}
