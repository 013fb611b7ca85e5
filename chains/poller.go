package chains

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sisu-network/flashrace/chains/common"
	"github.com/sisu-network/flashrace/metrics"
	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/lib/log"
	"go.uber.org/atomic"
)

// Poller fetches the latest block of one cadence on a fixed interval. At most one request is in
// flight at any time: a tick that fires while the previous request is outstanding is skipped.
type Poller struct {
	cfg            types.CadenceConfig
	source         BlockSource
	requestTimeout time.Duration
	updateCh       chan<- *types.PollerUpdate
	tracker        *common.BlockTimeTracker
	now            func() time.Time

	inFlight *atomic.Bool
	stopped  *atomic.Bool

	lock  *sync.RWMutex
	state types.PollerState

	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewPoller creates a poller for a cadence. Every state change is sent to updateCh, which may be
// nil when nobody listens.
func NewPoller(cfg types.CadenceConfig, source BlockSource, requestTimeout time.Duration,
	updateCh chan<- *types.PollerUpdate) (*Poller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, types.NewConfigError("source", "cadence %s has no block source", cfg.Label)
	}
	if requestTimeout <= 0 {
		return nil, types.NewConfigError("request_timeout_ms", "request timeout must be positive")
	}

	return &Poller{
		cfg:            cfg,
		source:         source,
		requestTimeout: requestTimeout,
		updateCh:       updateCh,
		tracker:        common.NewBlockTimeTracker(),
		now:            time.Now,
		inFlight:       atomic.NewBool(false),
		stopped:        atomic.NewBool(false),
		lock:           &sync.RWMutex{},
		state:          types.PollerState{IsLoading: true},
		wg:             &sync.WaitGroup{},
	}, nil
}

func (p *Poller) Label() string {
	return p.cfg.Label
}

func (p *Poller) Interval() time.Duration {
	return time.Duration(p.cfg.IntervalMs) * time.Millisecond
}

// ObservedBlockTime returns the average time between new blocks in milliseconds.
func (p *Poller) ObservedBlockTime() int {
	return p.tracker.GetBlockTime()
}

// State returns a copy of the current state.
func (p *Poller) State() types.PollerState {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.state
}

func (p *Poller) Start(ctx context.Context) {
	log.Infof("Starting %s poller with interval %d ms", p.cfg.Label, p.cfg.IntervalMs)

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop halts scheduling and cancels the outstanding request. A response arriving after Stop is
// never applied.
func (p *Poller) Stop() {
	if !p.stopped.CAS(false, true) {
		return
	}

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	log.Infof("%s poller stopped", p.cfg.Label)
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CAS(false, true) {
		log.Verbose(p.cfg.Label, ": previous request still in flight, skipping tick")
		metrics.PollSkippedTicks.WithLabelValues(p.cfg.Label).Inc()
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		p.poll(ctx)
	}()
}

func (p *Poller) poll(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	block, err := p.source.LatestBlock(reqCtx)
	cancel()

	if ctx.Err() != nil || p.stopped.Load() {
		return
	}

	if err == nil && block == nil {
		err = types.ErrEmptyHead
	}

	state, changed := p.apply(block, p.now(), err)
	if changed {
		p.publish(ctx, state)
	}
}

// apply folds one poll response into the state. A block replaces the held one when its number
// is greater, or when the number is equal and the contents changed: a pending block keeps its
// number while flashblocks append transactions to it. Errors keep the last good block.
func (p *Poller) apply(block *types.BlockSnapshot, observedAt time.Time, err error) (types.PollerState, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()

	wasLoading := p.state.IsLoading
	p.state.IsLoading = false

	if err != nil {
		if errors.Is(err, types.ErrEmptyHead) {
			log.Verbose(p.cfg.Label, ": empty chain head")
		} else {
			log.Error("Cannot get latest block for cadence ", p.cfg.Label, ", err = ", err)
		}
		metrics.PollRequests.WithLabelValues(p.cfg.Label, metrics.ResultError).Inc()

		p.state.LastError = types.NewTransportError(err)
		return p.state, true
	}

	latest := p.state.Latest
	if latest != nil && !supersedes(block, latest) {
		metrics.PollRequests.WithLabelValues(p.cfg.Label, metrics.ResultStale).Inc()

		changed := wasLoading || p.state.LastError != nil
		p.state.LastError = nil
		return p.state, changed
	}

	metrics.PollRequests.WithLabelValues(p.cfg.Label, metrics.ResultSuccess).Inc()
	metrics.LatestBlockNumber.WithLabelValues(p.cfg.Label).Set(float64(block.Number))

	if latest == nil || block.Number > latest.Number {
		log.Verbosef("%s: new block %d with %d txs", p.cfg.Label, block.Number, block.TxCount())
		p.tracker.NewBlock(block.Number, observedAt)
	} else {
		log.Verbosef("%s: block %d updated, %d txs", p.cfg.Label, block.Number, block.TxCount())
	}

	p.state.Latest = block.WithTimestamp(observedAt)
	p.state.LastError = nil

	return p.state, true
}

func supersedes(block, latest *types.BlockSnapshot) bool {
	if block.Number != latest.Number {
		return block.Number > latest.Number
	}

	return block.Hash != latest.Hash || block.TxCount() > latest.TxCount()
}

func (p *Poller) publish(ctx context.Context, state types.PollerState) {
	if p.updateCh == nil {
		return
	}

	select {
	case p.updateCh <- &types.PollerUpdate{Label: p.cfg.Label, State: state}:
	case <-ctx.Done():
	}
}
