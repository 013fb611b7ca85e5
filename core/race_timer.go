package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sisu-network/flashrace/metrics"
	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/flashrace/utils"
	"github.com/sisu-network/lib/log"
)

type race struct {
	id      string
	handle  types.TransactionHandle
	state   types.RaceState
	results map[string]*types.RaceResult
	missing []string
	timer   *time.Timer
}

func (r *race) report() *types.RaceReport {
	results := make(map[string]*types.RaceResult, len(r.results))
	for label, result := range r.results {
		cp := *result
		results[label] = &cp
	}

	var missing []string
	if len(r.missing) > 0 {
		missing = append(missing, r.missing...)
	}

	return &types.RaceReport{
		RaceID:  r.id,
		Handle:  r.handle,
		State:   r.state,
		Results: results,
		Missing: missing,
	}
}

// RaceTimer watches the block streams of every cadence for one armed transaction and records
// the first confirmation seen by each cadence. It is the only writer of race state.
type RaceTimer struct {
	labels   []string
	timeout  time.Duration
	reportCh chan<- *types.RaceReport

	lock *sync.Mutex
	race *race

	done     chan struct{}
	stopOnce *sync.Once
}

// NewRaceTimer creates a timer racing the given cadences. Reports are sent to reportCh, which may
// be nil.
func NewRaceTimer(labels []string, timeout time.Duration, reportCh chan<- *types.RaceReport) (*RaceTimer, error) {
	if len(labels) == 0 {
		return nil, types.NewConfigError("cadences", "race timer needs at least one cadence")
	}
	if timeout <= 0 {
		return nil, types.NewConfigError("race_timeout_ms", "race timeout must be positive")
	}

	seen := make(map[string]bool)
	for _, label := range labels {
		if seen[label] {
			return nil, types.NewConfigError("label", "duplicated cadence label %q", label)
		}
		seen[label] = true
	}

	return &RaceTimer{
		labels:   labels,
		timeout:  timeout,
		reportCh: reportCh,
		lock:     &sync.Mutex{},
		done:     make(chan struct{}),
		stopOnce: &sync.Once{},
	}, nil
}

// Arm starts a new race for handle and returns the race id. It fails with ErrRaceInProgress
// while the previous race still waits for a cadence.
func (t *RaceTimer) Arm(handle types.TransactionHandle) (string, error) {
	t.lock.Lock()
	if t.race != nil && t.race.state.IsActive() {
		t.lock.Unlock()
		return "", types.ErrRaceInProgress
	}

	r := &race{
		id:      uuid.NewString(),
		handle:  handle,
		state:   types.RaceArmed,
		results: make(map[string]*types.RaceResult),
	}
	r.timer = time.AfterFunc(t.timeout, func() {
		t.expire(r.id)
	})
	t.race = r
	report := r.report()
	t.lock.Unlock()

	log.Infof("Race %s armed for tx %s", r.id, handle.Hash)
	t.publish(report)

	return r.id, nil
}

// OnPollerUpdate checks a poller's latest block for the armed transaction.
func (t *RaceTimer) OnPollerUpdate(update *types.PollerUpdate) {
	if update == nil {
		return
	}

	t.lock.Lock()
	r := t.race
	if r == nil || !r.state.IsActive() || !t.isRacing(update.Label) {
		t.lock.Unlock()
		return
	}

	if _, ok := r.results[update.Label]; ok {
		t.lock.Unlock()
		return
	}

	snapshot := update.State.Latest
	if !snapshot.Contains(r.handle.Hash) {
		t.lock.Unlock()
		return
	}

	elapsed := snapshot.Timestamp.Sub(r.handle.BroadcastAt).Milliseconds()
	result := &types.RaceResult{
		CadenceLabel:     update.Label,
		ElapsedMs:        utils.MaxInt(elapsed, 0),
		ConfirmedAtBlock: snapshot.Number,
		ClockSkew:        elapsed < 0,
	}
	if result.ClockSkew {
		log.Warnf("Race %s: %s saw tx %s %d ms before broadcast", r.id, update.Label,
			r.handle.Hash, -elapsed)
		metrics.RaceClockSkews.WithLabelValues(update.Label).Inc()
	}
	r.results[update.Label] = result
	metrics.RaceElapsedMs.WithLabelValues(update.Label).Observe(float64(result.ElapsedMs))

	if len(r.results) == len(t.labels) {
		r.state = types.RaceCompleted
		r.timer.Stop()
		metrics.RaceOutcomes.WithLabelValues(r.state.String()).Inc()
	} else {
		r.state = types.RaceRacing
	}
	report := r.report()
	t.lock.Unlock()

	log.Infof("Race %s: %s confirmed tx at block %d after %d ms", r.id, update.Label,
		result.ConfirmedAtBlock, result.ElapsedMs)
	t.publish(report)
}

// Report returns the state of the current or last race.
func (t *RaceTimer) Report() (*types.RaceReport, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.race == nil {
		return nil, types.ErrNoActiveRace
	}

	return t.race.report(), nil
}

func (t *RaceTimer) State() types.RaceState {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.race == nil {
		return types.RaceIdle
	}

	return t.race.state
}

// Stop cancels the timeout of the current race and stops publishing reports. The race keeps its
// state.
func (t *RaceTimer) Stop() {
	t.stopOnce.Do(func() { close(t.done) })

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.race != nil {
		t.race.timer.Stop()
	}
}

func (t *RaceTimer) expire(id string) {
	t.lock.Lock()
	r := t.race
	if r == nil || r.id != id || !r.state.IsActive() {
		t.lock.Unlock()
		return
	}

	r.state = types.RaceTimedOut
	for _, label := range t.labels {
		if _, ok := r.results[label]; !ok {
			r.missing = append(r.missing, label)
		}
	}
	metrics.RaceOutcomes.WithLabelValues(r.state.String()).Inc()
	report := r.report()
	t.lock.Unlock()

	log.Warnf("Race %s timed out, missing cadences: %v", id, report.Missing)
	t.publish(report)
}

func (t *RaceTimer) isRacing(label string) bool {
	for _, l := range t.labels {
		if l == label {
			return true
		}
	}

	return false
}

func (t *RaceTimer) publish(report *types.RaceReport) {
	if t.reportCh == nil {
		return
	}

	select {
	case t.reportCh <- report:
	case <-t.done:
	}
}
