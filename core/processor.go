package core

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sisu-network/flashrace/chains"
	"github.com/sisu-network/flashrace/chains/eth"
	"github.com/sisu-network/flashrace/client"
	"github.com/sisu-network/flashrace/config"
	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/lib/log"
)

const reportBuffer = 64

// Processor owns the monitor, the race timer and the presenter for the lifetime of the process
// and moves updates between them.
type Processor struct {
	cfg        config.FlashRace
	monitor    *Monitor
	timer      *RaceTimer
	presenter  *Presenter
	dispatcher chains.Dispatcher
	minter     client.Client
	clients    []eth.EthClient

	// held from the in-progress check until the race is armed
	raceLock *sync.Mutex

	reportCh   chan *types.RaceReport
	terminalCh chan *types.RaceReport
	updates    <-chan *types.PollerUpdate

	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewProcessor(cfg *config.FlashRace, monitor *Monitor, dispatcher chains.Dispatcher,
	minter client.Client) (*Processor, error) {
	slow, fast := cfg.Slow(), cfg.Fast()
	reportCh := make(chan *types.RaceReport, reportBuffer)

	timer, err := NewRaceTimer([]string{slow.Label, fast.Label}, cfg.RaceTimeout(), reportCh)
	if err != nil {
		return nil, err
	}

	presenter := NewPresenter(
		CadenceInfo{Title: slow.Title, Label: slow.Label, IntervalMs: slow.IntervalMs},
		CadenceInfo{Title: fast.Title, Label: fast.Label, IntervalMs: fast.IntervalMs},
		minter,
	)

	return &Processor{
		cfg:        *cfg,
		monitor:    monitor,
		timer:      timer,
		presenter:  presenter,
		dispatcher: dispatcher,
		minter:     minter,
		reportCh:   reportCh,
		terminalCh: make(chan *types.RaceReport, 1),
		raceLock:   &sync.Mutex{},
		wg:         &sync.WaitGroup{},
	}, nil
}

// NewProcessorFromConfig dials the block sources of both cadences and the broadcast client of the
// fast cadence.
func NewProcessorFromConfig(ctx context.Context, cfg *config.FlashRace, minter client.Client) (*Processor, error) {
	slowCfg, fastCfg := cfg.Slow(), cfg.Fast()
	clients := make([]eth.EthClient, 0)
	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	slowSource, slowClient, err := eth.NewBlockSource(ctx, slowCfg)
	if err != nil {
		return nil, err
	}
	if slowClient != nil {
		clients = append(clients, slowClient)
	}

	fastSource, fastClient, err := eth.NewBlockSource(ctx, fastCfg)
	if err != nil {
		closeAll()
		return nil, err
	}
	if fastClient == nil {
		fastClient, err = eth.NewEthClients(ctx, fastCfg.Rpcs)
		if err != nil {
			closeAll()
			return nil, err
		}
	}
	clients = append(clients, fastClient)

	monitor, err := NewMonitor(slowCfg.CadenceConfig(), fastCfg.CadenceConfig(), slowSource, fastSource,
		cfg.RequestTimeout())
	if err != nil {
		closeAll()
		return nil, err
	}

	p, err := NewProcessor(cfg, monitor, eth.NewEthDispatcher(fastCfg.Label, fastClient), minter)
	if err != nil {
		closeAll()
		return nil, err
	}
	p.clients = clients

	return p, nil
}

func (p *Processor) Start(ctx context.Context) {
	log.Info("Starting processor...")
	log.Info("Slow cadence = ", p.cfg.Slow().Label, ", fast cadence = ", p.cfg.Fast().Label,
		", race timeout = ", p.cfg.RaceTimeout())

	ctx, p.cancel = context.WithCancel(ctx)
	p.updates = p.monitor.Subscribe()

	p.wg.Add(2)
	go p.listenUpdates(ctx)
	go p.listenReports(ctx)

	p.monitor.Start(ctx)
}

func (p *Processor) Stop() {
	p.monitor.Stop()
	p.monitor.Unsubscribe(p.updates)
	p.timer.Stop()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.presenter.Wait()

	for _, c := range p.clients {
		c.Close()
	}
	if p.minter != nil {
		p.minter.Close()
	}

	log.Info("Processor stopped")
}

func (p *Processor) listenUpdates(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-p.updates:
			p.timer.OnPollerUpdate(update)
		}
	}
}

func (p *Processor) listenReports(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case report := <-p.reportCh:
			log.Verbose("Race ", report.RaceID, " is now ", report.State)
			p.presenter.OnRaceReport(ctx, report)

			if report.State.IsTerminal() {
				// Only the last finished race is kept.
				select {
				case <-p.terminalCh:
				default:
				}
				p.terminalCh <- report
			}
		}
	}
}

// StartRace broadcasts a signed raw transaction on the fast cadence and races it. Nothing is
// broadcast while another race is active.
func (p *Processor) StartRace(ctx context.Context, rawTx []byte) (*types.RaceReport, error) {
	p.raceLock.Lock()
	defer p.raceLock.Unlock()

	if p.timer.State().IsActive() {
		return nil, types.ErrRaceInProgress
	}

	handle, err := p.dispatcher.Dispatch(ctx, rawTx)
	if err != nil {
		return nil, err
	}

	return p.armRace(handle.Hash, handle.BroadcastAt)
}

// ArmRace races a transaction that was broadcast elsewhere at broadcastAt.
func (p *Processor) ArmRace(hash common.Hash, broadcastAt time.Time) (*types.RaceReport, error) {
	p.raceLock.Lock()
	defer p.raceLock.Unlock()

	return p.armRace(hash, broadcastAt)
}

func (p *Processor) armRace(hash common.Hash, broadcastAt time.Time) (*types.RaceReport, error) {
	if _, err := p.timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: broadcastAt}); err != nil {
		return nil, err
	}

	// The tx may already be in the blocks the pollers hold.
	slow, fast := p.monitor.GetSnapshotPair()
	p.timer.OnPollerUpdate(&types.PollerUpdate{Label: p.monitor.SlowPoller().Label(), State: slow})
	p.timer.OnPollerUpdate(&types.PollerUpdate{Label: p.monitor.FastPoller().Label(), State: fast})

	return p.timer.Report()
}

// WaitRace blocks until the race with raceID ends, then waits for its mint call.
func (p *Processor) WaitRace(ctx context.Context, raceID string) (*types.RaceReport, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case report := <-p.terminalCh:
			if report.RaceID == raceID {
				p.presenter.Wait()
				return report, nil
			}
		}
	}
}

func (p *Processor) GetRace() (*types.RaceReport, error) {
	return p.timer.Report()
}

func (p *Processor) GetSnapshotPair() (slow, fast types.PollerState) {
	return p.monitor.GetSnapshotPair()
}

func (p *Processor) GetViews() []*types.CadenceView {
	return p.presenter.Views(p.monitor.Status())
}

func (p *Processor) Presenter() *Presenter {
	return p.presenter
}
