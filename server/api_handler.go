package server

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sisu-network/flashrace/types"
)

// Processor is the part of core.Processor exposed over JSON-RPC.
type Processor interface {
	GetSnapshotPair() (slow, fast types.PollerState)
	GetViews() []*types.CadenceView
	StartRace(ctx context.Context, rawTx []byte) (*types.RaceReport, error)
	ArmRace(hash common.Hash, broadcastAt time.Time) (*types.RaceReport, error)
	GetRace() (*types.RaceReport, error)
}

type SnapshotPair struct {
	Slow types.PollerState `json:"slow"`
	Fast types.PollerState `json:"fast"`
}

// ApiHandler serves the "flash" namespace.
type ApiHandler struct {
	processor Processor
}

func NewApi(processor Processor) *ApiHandler {
	return &ApiHandler{
		processor: processor,
	}
}

// Empty function for checking health only.
func (api *ApiHandler) CheckHealth() {
}

func (api *ApiHandler) GetSnapshotPair() *SnapshotPair {
	slow, fast := api.processor.GetSnapshotPair()
	return &SnapshotPair{Slow: slow, Fast: fast}
}

func (api *ApiHandler) GetViews() []*types.CadenceView {
	return api.processor.GetViews()
}

// SendRawTransaction broadcasts a signed transaction and races it.
func (api *ApiHandler) SendRawTransaction(ctx context.Context, rawTx hexutil.Bytes) (*types.RaceReport, error) {
	return api.processor.StartRace(ctx, rawTx)
}

// ArmRace races a transaction the caller broadcast itself. broadcastAtMs is a unix time in
// milliseconds; zero means now.
func (api *ApiHandler) ArmRace(hash common.Hash, broadcastAtMs int64) (*types.RaceReport, error) {
	broadcastAt := time.Now()
	if broadcastAtMs > 0 {
		broadcastAt = time.UnixMilli(broadcastAtMs)
	}

	return api.processor.ArmRace(hash, broadcastAt)
}

func (api *ApiHandler) GetRace() (*types.RaceReport, error) {
	return api.processor.GetRace()
}
