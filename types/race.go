package types

import "fmt"

type RaceState int

const (
	RaceIdle RaceState = iota
	RaceArmed
	RaceRacing
	RaceCompleted
	RaceTimedOut
)

func (s RaceState) String() string {
	switch s {
	case RaceIdle:
		return "Idle"
	case RaceArmed:
		return "Armed"
	case RaceRacing:
		return "Racing"
	case RaceCompleted:
		return "Completed"
	case RaceTimedOut:
		return "TimedOut"
	}

	return fmt.Sprintf("RaceState(%d)", int(s))
}

func (s RaceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsActive returns true while a race still waits for at least one cadence.
func (s RaceState) IsActive() bool {
	return s == RaceArmed || s == RaceRacing
}

func (s RaceState) IsTerminal() bool {
	return s == RaceCompleted || s == RaceTimedOut
}

type RaceResult struct {
	CadenceLabel     string `json:"cadence_label"`
	ElapsedMs        int64  `json:"elapsed_ms"`
	ConfirmedAtBlock uint64 `json:"confirmed_at_block"`
	// Set when the matching snapshot was observed before the broadcast time. ElapsedMs is then
	// floored at zero.
	ClockSkew bool `json:"clock_skew,omitempty"`
}

// RaceReport is the state of one race as published by the race timer.
type RaceReport struct {
	RaceID  string                 `json:"race_id"`
	Handle  TransactionHandle      `json:"handle"`
	State   RaceState              `json:"state"`
	Results map[string]*RaceResult `json:"results"`
	// Cadences that had not confirmed when the race timed out.
	Missing []string `json:"missing,omitempty"`
}

func (r *RaceReport) Result(label string) (*RaceResult, bool) {
	if r == nil {
		return nil, false
	}

	result, ok := r.Results[label]
	return result, ok
}

type MintResult struct {
	TxHash  string `json:"tx_hash"`
	TokenId string `json:"token_id,omitempty"`
}
