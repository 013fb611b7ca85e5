package server

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sisu-network/flashrace/types"
)

type MockProcessor struct {
	GetSnapshotPairFunc func() (slow, fast types.PollerState)
	GetViewsFunc        func() []*types.CadenceView
	StartRaceFunc       func(ctx context.Context, rawTx []byte) (*types.RaceReport, error)
	ArmRaceFunc         func(hash common.Hash, broadcastAt time.Time) (*types.RaceReport, error)
	GetRaceFunc         func() (*types.RaceReport, error)
}

func (p *MockProcessor) GetSnapshotPair() (slow, fast types.PollerState) {
	if p.GetSnapshotPairFunc != nil {
		return p.GetSnapshotPairFunc()
	}

	return
}

func (p *MockProcessor) GetViews() []*types.CadenceView {
	if p.GetViewsFunc != nil {
		return p.GetViewsFunc()
	}

	return nil
}

func (p *MockProcessor) StartRace(ctx context.Context, rawTx []byte) (*types.RaceReport, error) {
	if p.StartRaceFunc != nil {
		return p.StartRaceFunc(ctx, rawTx)
	}

	return nil, nil
}

func (p *MockProcessor) ArmRace(hash common.Hash, broadcastAt time.Time) (*types.RaceReport, error) {
	if p.ArmRaceFunc != nil {
		return p.ArmRaceFunc(hash, broadcastAt)
	}

	return nil, nil
}

func (p *MockProcessor) GetRace() (*types.RaceReport, error) {
	if p.GetRaceFunc != nil {
		return p.GetRaceFunc()
	}

	return nil, types.ErrNoActiveRace
}
