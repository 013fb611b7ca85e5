package types

type PollerState struct {
	Latest    *BlockSnapshot `json:"latest"`
	IsLoading bool           `json:"is_loading"`
	LastError *PollError     `json:"last_error,omitempty"`
}

// PollerUpdate is pushed by a poller every time its state changes.
type PollerUpdate struct {
	Label string
	State PollerState
}

type CadenceConfig struct {
	Label      string
	IntervalMs int
}

func (c CadenceConfig) Validate() error {
	if c.Label == "" {
		return NewConfigError("label", "cadence label cannot be empty")
	}

	if c.IntervalMs <= 0 {
		return NewConfigError("interval_ms", "interval for cadence %s must be positive, got %d",
			c.Label, c.IntervalMs)
	}

	return nil
}

// CadenceStatus is a poller state plus what the poller measured about block production.
type CadenceStatus struct {
	State               PollerState
	ObservedBlockTimeMs int
}
