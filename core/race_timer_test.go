package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sisu-network/flashrace/chains"
	"github.com/sisu-network/flashrace/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const (
	testSlow = "regular"
	testFast = "flashblock"
)

func newTestUpdate(label string, number uint64, observedAt time.Time, hashes ...common.Hash) *types.PollerUpdate {
	snapshot := types.NewBlockSnapshot(number, common.Hash{byte(number)}, 0, hashes).WithTimestamp(observedAt)
	return &types.PollerUpdate{
		Label: label,
		State: types.PollerState{Latest: snapshot},
	}
}

func newTestTimer(t *testing.T, timeout time.Duration) (*RaceTimer, chan *types.RaceReport) {
	reportCh := make(chan *types.RaceReport, 100)
	timer, err := NewRaceTimer([]string{testSlow, testFast}, timeout, reportCh)
	require.Nil(t, err)

	return timer, reportCh
}

func drainReports(ch chan *types.RaceReport) []*types.RaceReport {
	reports := make([]*types.RaceReport, 0)
	for {
		select {
		case r := <-ch:
			reports = append(reports, r)
		default:
			return reports
		}
	}
}

func TestNewRaceTimer(t *testing.T) {
	var cfgErr *types.ConfigError

	_, err := NewRaceTimer(nil, time.Second, nil)
	require.True(t, errors.As(err, &cfgErr))

	_, err = NewRaceTimer([]string{testSlow, testFast}, 0, nil)
	require.True(t, errors.As(err, &cfgErr))

	_, err = NewRaceTimer([]string{testSlow, testSlow}, time.Second, nil)
	require.True(t, errors.As(err, &cfgErr))
}

func TestRaceTimer_ElapsedFromSnapshot(t *testing.T) {
	timer, reportCh := newTestTimer(t, time.Minute)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	id, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, types.RaceArmed, timer.State())

	// A block without the tx changes nothing.
	timer.OnPollerUpdate(newTestUpdate(testFast, 10, t0.Add(100*time.Millisecond)))
	require.Equal(t, types.RaceArmed, timer.State())

	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(180*time.Millisecond), hash))
	require.Equal(t, types.RaceRacing, timer.State())

	report, err := timer.Report()
	require.Nil(t, err)
	require.Equal(t, id, report.RaceID)
	result, ok := report.Result(testFast)
	require.True(t, ok)
	require.Equal(t, int64(180), result.ElapsedMs)
	require.Equal(t, uint64(11), result.ConfirmedAtBlock)
	require.False(t, result.ClockSkew)

	reports := drainReports(reportCh)
	require.Equal(t, 2, len(reports))
	require.Equal(t, types.RaceArmed, reports[0].State)
	require.Equal(t, types.RaceRacing, reports[1].State)
}

func TestRaceTimer_OneResultPerCadence(t *testing.T) {
	timer, reportCh := newTestTimer(t, time.Minute)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	_, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)

	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(180*time.Millisecond), hash))
	timer.OnPollerUpdate(newTestUpdate(testFast, 12, t0.Add(380*time.Millisecond), hash))

	report, err := timer.Report()
	require.Nil(t, err)
	require.Equal(t, 1, len(report.Results))
	require.Equal(t, int64(180), report.Results[testFast].ElapsedMs)

	// Armed and the first result only.
	require.Equal(t, 2, len(drainReports(reportCh)))
}

func TestRaceTimer_Completed(t *testing.T) {
	timer, reportCh := newTestTimer(t, time.Minute)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	_, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)

	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(210*time.Millisecond), hash))
	timer.OnPollerUpdate(newTestUpdate(testSlow, 5, t0.Add(1950*time.Millisecond), hash))
	require.Equal(t, types.RaceCompleted, timer.State())

	reports := drainReports(reportCh)
	last := reports[len(reports)-1]
	require.Equal(t, types.RaceCompleted, last.State)
	require.Equal(t, int64(210), last.Results[testFast].ElapsedMs)
	require.Equal(t, int64(1950), last.Results[testSlow].ElapsedMs)
	require.Empty(t, last.Missing)

	// Updates after completion are ignored.
	timer.OnPollerUpdate(newTestUpdate(testSlow, 6, t0.Add(3950*time.Millisecond), hash))
	require.Empty(t, drainReports(reportCh))
}

func TestRaceTimer_ArmWhileActive(t *testing.T) {
	timer, _ := newTestTimer(t, time.Minute)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	id, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)

	_, err = timer.Arm(types.TransactionHandle{Hash: common.Hash{0xbb}, BroadcastAt: t0})
	require.Equal(t, types.ErrRaceInProgress, err)

	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(180*time.Millisecond), hash))
	_, err = timer.Arm(types.TransactionHandle{Hash: common.Hash{0xbb}, BroadcastAt: t0})
	require.Equal(t, types.ErrRaceInProgress, err)

	report, err := timer.Report()
	require.Nil(t, err)
	require.Equal(t, id, report.RaceID)
	require.Equal(t, hash, report.Handle.Hash)
	require.Equal(t, types.RaceRacing, report.State)
	require.Equal(t, int64(180), report.Results[testFast].ElapsedMs)
}

func TestRaceTimer_RearmAfterCompleted(t *testing.T) {
	timer, _ := newTestTimer(t, time.Minute)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	first, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)
	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(210*time.Millisecond), hash))
	timer.OnPollerUpdate(newTestUpdate(testSlow, 5, t0.Add(1950*time.Millisecond), hash))
	require.Equal(t, types.RaceCompleted, timer.State())

	second, err := timer.Arm(types.TransactionHandle{Hash: common.Hash{0xbb}, BroadcastAt: t0})
	require.Nil(t, err)
	require.NotEqual(t, first, second)

	report, err := timer.Report()
	require.Nil(t, err)
	require.Equal(t, types.RaceArmed, report.State)
	require.Empty(t, report.Results)
}

func TestRaceTimer_TimedOut(t *testing.T) {
	timer, reportCh := newTestTimer(t, 50*time.Millisecond)
	defer timer.Stop()

	_, err := timer.Arm(types.TransactionHandle{Hash: common.Hash{0xaa}, BroadcastAt: time.Now()})
	require.Nil(t, err)
	<-reportCh

	select {
	case report := <-reportCh:
		require.Equal(t, types.RaceTimedOut, report.State)
		require.Empty(t, report.Results)
		require.ElementsMatch(t, []string{testSlow, testFast}, report.Missing)
	case <-time.After(2 * time.Second):
		t.Fatal("race did not time out")
	}

	require.Equal(t, types.RaceTimedOut, timer.State())

	// A timed out race can be replaced.
	_, err = timer.Arm(types.TransactionHandle{Hash: common.Hash{0xbb}, BroadcastAt: time.Now()})
	require.Nil(t, err)
}

func TestRaceTimer_TimedOutKeepsResolvedCadence(t *testing.T) {
	timer, reportCh := newTestTimer(t, 50*time.Millisecond)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	_, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)
	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(210*time.Millisecond), hash))

	require.Eventually(t, func() bool {
		return timer.State() == types.RaceTimedOut
	}, 2*time.Second, 10*time.Millisecond)

	report, err := timer.Report()
	require.Nil(t, err)
	require.Equal(t, []string{testSlow}, report.Missing)
	require.Equal(t, int64(210), report.Results[testFast].ElapsedMs)
	require.NotEmpty(t, drainReports(reportCh))
}

func TestRaceTimer_ClockSkew(t *testing.T) {
	timer, _ := newTestTimer(t, time.Minute)
	defer timer.Stop()

	t0 := time.Now()
	hash := common.Hash{0xaa}
	_, err := timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: t0})
	require.Nil(t, err)

	timer.OnPollerUpdate(newTestUpdate(testFast, 11, t0.Add(-40*time.Millisecond), hash))

	report, err := timer.Report()
	require.Nil(t, err)
	require.Equal(t, int64(0), report.Results[testFast].ElapsedMs)
	require.True(t, report.Results[testFast].ClockSkew)
}

func TestRaceTimer_IgnoresUnknownInput(t *testing.T) {
	timer, reportCh := newTestTimer(t, time.Minute)
	defer timer.Stop()

	_, err := timer.Report()
	require.Equal(t, types.ErrNoActiveRace, err)
	require.Equal(t, types.RaceIdle, timer.State())

	hash := common.Hash{0xaa}
	// Not armed yet.
	timer.OnPollerUpdate(newTestUpdate(testFast, 11, time.Now(), hash))
	require.Equal(t, types.RaceIdle, timer.State())

	_, err = timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: time.Now()})
	require.Nil(t, err)
	timer.OnPollerUpdate(nil)
	timer.OnPollerUpdate(newTestUpdate("other", 11, time.Now(), hash))
	timer.OnPollerUpdate(&types.PollerUpdate{Label: testFast, State: types.PollerState{IsLoading: true}})
	require.Equal(t, types.RaceArmed, timer.State())
	require.Equal(t, 1, len(drainReports(reportCh)))
}

func TestRaceTimer_TxInLaterFlashblock(t *testing.T) {
	hash := common.Hash{0xaa}
	calls := atomic.NewInt32(0)
	// Pending block 100 gets the tx in its second flashblock, then block 101 starts empty.
	source := &chains.MockBlockSource{
		LatestBlockFunc: func(ctx context.Context) (*types.BlockSnapshot, error) {
			switch n := calls.Inc(); {
			case n == 1:
				return types.NewBlockSnapshot(100, common.Hash{}, 0, nil), nil
			case n <= 4:
				return types.NewBlockSnapshot(100, common.Hash{}, 0, []common.Hash{hash}), nil
			default:
				return types.NewBlockSnapshot(101, common.Hash{}, 0, nil), nil
			}
		},
	}

	updateCh := make(chan *types.PollerUpdate, 100)
	poller, err := chains.NewPoller(types.CadenceConfig{Label: testFast, IntervalMs: 10}, source,
		time.Second, updateCh)
	require.Nil(t, err)

	timer, _ := newTestTimer(t, time.Minute)
	defer timer.Stop()
	_, err = timer.Arm(types.TransactionHandle{Hash: hash, BroadcastAt: time.Now()})
	require.Nil(t, err)

	poller.Start(context.Background())
	defer poller.Stop()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case update := <-updateCh:
			timer.OnPollerUpdate(update)
		case <-deadline:
			t.Fatal("tx in a later flashblock was not detected")
		}

		report, err := timer.Report()
		require.Nil(t, err)
		if result, ok := report.Result(testFast); ok {
			require.Equal(t, uint64(100), result.ConfirmedAtBlock)
			require.Equal(t, types.RaceRacing, report.State)
			return
		}
	}
}

func TestRaceTimer_StopUnblocksPublish(t *testing.T) {
	// Nobody reads this channel.
	reportCh := make(chan *types.RaceReport)
	timer, err := NewRaceTimer([]string{testSlow, testFast}, time.Minute, reportCh)
	require.Nil(t, err)

	armed := make(chan error, 1)
	go func() {
		_, err := timer.Arm(types.TransactionHandle{Hash: common.Hash{0xaa}, BroadcastAt: time.Now()})
		armed <- err
	}()

	time.Sleep(20 * time.Millisecond)
	timer.Stop()

	select {
	case err := <-armed:
		require.Nil(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked after stop")
	}

	// Later calls do not block either.
	timer.OnPollerUpdate(newTestUpdate(testFast, 11, time.Now(), common.Hash{0xaa}))
	require.Equal(t, types.RaceRacing, timer.State())
}
