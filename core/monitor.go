package core

import (
	"context"
	"sync"
	"time"

	"github.com/sisu-network/flashrace/chains"
	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/lib/log"
)

const (
	pollerUpdateBuffer     = 16
	subscriberUpdateBuffer = 64
)

type subscription struct {
	ch   chan *types.PollerUpdate
	done chan struct{}
	once *sync.Once
}

// Monitor runs a slow and a fast poller side by side. The pollers share nothing: each one has
// its own update channel that the monitor fans in for subscribers.
type Monitor struct {
	slow *chains.Poller
	fast *chains.Poller

	slowCh chan *types.PollerUpdate
	fastCh chan *types.PollerUpdate

	lock        *sync.RWMutex
	subscribers map[<-chan *types.PollerUpdate]*subscription

	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewMonitor(slowCfg, fastCfg types.CadenceConfig, slowSource, fastSource chains.BlockSource,
	requestTimeout time.Duration) (*Monitor, error) {
	if slowCfg.Label == fastCfg.Label {
		return nil, types.NewConfigError("label", "cadences must have distinct labels, both are %q",
			slowCfg.Label)
	}

	slowCh := make(chan *types.PollerUpdate, pollerUpdateBuffer)
	fastCh := make(chan *types.PollerUpdate, pollerUpdateBuffer)

	slow, err := chains.NewPoller(slowCfg, slowSource, requestTimeout, slowCh)
	if err != nil {
		return nil, err
	}
	fast, err := chains.NewPoller(fastCfg, fastSource, requestTimeout, fastCh)
	if err != nil {
		return nil, err
	}

	return &Monitor{
		slow:        slow,
		fast:        fast,
		slowCh:      slowCh,
		fastCh:      fastCh,
		lock:        &sync.RWMutex{},
		subscribers: make(map[<-chan *types.PollerUpdate]*subscription),
		wg:          &sync.WaitGroup{},
	}, nil
}

func (m *Monitor) Start(ctx context.Context) {
	log.Info("Starting dual cadence monitor...")

	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.listen(ctx)

	m.slow.Start(ctx)
	m.fast.Start(ctx)
}

func (m *Monitor) Stop() {
	m.slow.Stop()
	m.fast.Stop()

	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) SlowPoller() *chains.Poller {
	return m.slow
}

func (m *Monitor) FastPoller() *chains.Poller {
	return m.fast
}

// GetSnapshotPair returns copies of both poller states.
func (m *Monitor) GetSnapshotPair() (slow, fast types.PollerState) {
	return m.slow.State(), m.fast.State()
}

func (m *Monitor) Status() (slow, fast types.CadenceStatus) {
	slow = types.CadenceStatus{
		State:               m.slow.State(),
		ObservedBlockTimeMs: m.slow.ObservedBlockTime(),
	}
	fast = types.CadenceStatus{
		State:               m.fast.State(),
		ObservedBlockTimeMs: m.fast.ObservedBlockTime(),
	}

	return
}

// Subscribe returns a channel that receives every state change of either poller. No order is
// guaranteed between the two pollers.
func (m *Monitor) Subscribe() <-chan *types.PollerUpdate {
	sub := &subscription{
		ch:   make(chan *types.PollerUpdate, subscriberUpdateBuffer),
		done: make(chan struct{}),
		once: &sync.Once{},
	}

	m.lock.Lock()
	m.subscribers[sub.ch] = sub
	m.lock.Unlock()

	return sub.ch
}

func (m *Monitor) Unsubscribe(ch <-chan *types.PollerUpdate) {
	m.lock.Lock()
	sub, ok := m.subscribers[ch]
	delete(m.subscribers, ch)
	m.lock.Unlock()

	if ok {
		sub.once.Do(func() { close(sub.done) })
	}
}

func (m *Monitor) listen(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-m.slowCh:
			m.broadcast(ctx, update)
		case update := <-m.fastCh:
			m.broadcast(ctx, update)
		}
	}
}

func (m *Monitor) broadcast(ctx context.Context, update *types.PollerUpdate) {
	m.lock.RLock()
	subs := make([]*subscription, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		subs = append(subs, sub)
	}
	m.lock.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- update:
		case <-sub.done:
		case <-ctx.Done():
			return
		}
	}
}
