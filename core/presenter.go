package core

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sisu-network/flashrace/client"
	"github.com/sisu-network/flashrace/types"
	"github.com/sisu-network/lib/log"
)

const (
	SlowTitle = "Regular"
	FastTitle = "Flashblock"

	mintedCacheSize = 128
)

// CadenceInfo is the static part of a cadence view.
type CadenceInfo struct {
	Title      string
	Label      string
	IntervalMs int
}

// Presenter turns poller states and race reports into views and hands the fast cadence result
// of every finished race to the minter. It never changes poller or race state.
type Presenter struct {
	slow   CadenceInfo
	fast   CadenceInfo
	minter client.Client

	lock   *sync.RWMutex
	report *types.RaceReport
	mint   *types.MintResult
	// race ids already handed to the minter
	minted *lru.Cache
	wg     *sync.WaitGroup
}

// NewPresenter creates a presenter. minter may be nil, in which case nothing is minted.
func NewPresenter(slow, fast CadenceInfo, minter client.Client) *Presenter {
	if slow.Title == "" {
		slow.Title = SlowTitle
	}
	if fast.Title == "" {
		fast.Title = FastTitle
	}

	return &Presenter{
		slow:   slow,
		fast:   fast,
		minter: minter,
		lock:   &sync.RWMutex{},
		minted: lru.New(mintedCacheSize),
		wg:     &sync.WaitGroup{},
	}
}

// Views renders both cadences, slow first.
func (p *Presenter) Views(slow, fast types.CadenceStatus) []*types.CadenceView {
	p.lock.RLock()
	report := p.report
	p.lock.RUnlock()

	return []*types.CadenceView{
		buildView(p.slow, slow, report),
		buildView(p.fast, fast, report),
	}
}

func buildView(info CadenceInfo, status types.CadenceStatus, report *types.RaceReport) *types.CadenceView {
	view := &types.CadenceView{
		Title:               info.Title,
		Label:               info.Label,
		IntervalMs:          info.IntervalMs,
		IsLoading:           status.State.IsLoading,
		ObservedBlockTimeMs: status.ObservedBlockTimeMs,
	}

	if latest := status.State.Latest; latest != nil {
		view.BlockNumber = latest.Number
		view.BlockHash = latest.Hash.Hex()
		view.TxCount = latest.TxCount()
	}
	if status.State.LastError != nil {
		view.Error = status.State.LastError.Error()
	}

	if result, ok := report.Result(info.Label); ok {
		elapsed := result.ElapsedMs
		view.LastElapsedMs = &elapsed
		view.ClockSkew = result.ClockSkew
	} else if report != nil && report.State == types.RaceTimedOut {
		view.Unavailable = true
	}

	return view
}

// OnRaceReport records the latest report. When a race ends with a fast cadence result, the
// minter is called once for that race in the background.
func (p *Presenter) OnRaceReport(ctx context.Context, report *types.RaceReport) {
	if report == nil {
		return
	}

	p.lock.Lock()
	// Reports of one race can arrive out of order; a terminal report is never replaced by an
	// older one of the same race.
	if p.report != nil && p.report.RaceID == report.RaceID && p.report.State.IsTerminal() &&
		!report.State.IsTerminal() {
		p.lock.Unlock()
		return
	}
	if p.report == nil || p.report.RaceID != report.RaceID {
		p.mint = nil
	}
	p.report = report

	result, ok := report.Result(p.fast.Label)
	shouldMint := ok && report.State.IsTerminal() && p.minter != nil
	if shouldMint {
		if _, minted := p.minted.Get(report.RaceID); minted {
			shouldMint = false
		} else {
			p.minted.Add(report.RaceID, result.ElapsedMs)
		}
	}
	p.lock.Unlock()

	if !shouldMint {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.mintTime(ctx, report.RaceID, result.ElapsedMs)
	}()
}

func (p *Presenter) mintTime(ctx context.Context, raceID string, elapsedMs int64) {
	log.Infof("Minting %d ms for race %s", elapsedMs, raceID)

	mint, err := p.minter.MintTransactionTime(ctx, elapsedMs)
	if err != nil {
		log.Error("Cannot mint transaction time for race ", raceID, ", err = ", err)
		return
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	if p.report != nil && p.report.RaceID == raceID {
		p.mint = mint
	}
}

// Wait blocks until every mint call started so far has returned.
func (p *Presenter) Wait() {
	p.wg.Wait()
}

func (p *Presenter) LastReport() *types.RaceReport {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.report
}

// MintResult returns the mint of the last race, if any.
func (p *Presenter) MintResult() *types.MintResult {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.mint
}

// Render writes the views and the last race as a table.
func (p *Presenter) Render(w io.Writer, views []*types.CadenceView) {
	tw := table.NewWriter()
	tw.SetTitle("Block cadence race")
	tw.AppendHeader(table.Row{"Cadence", "Interval", "Block", "Txs", "Block Time", "Confirmed In", "Status"})

	for _, view := range views {
		block := "-"
		if view.BlockNumber > 0 {
			block = fmt.Sprintf("%d", view.BlockNumber)
		}

		blockTime := "-"
		if view.ObservedBlockTimeMs > 0 {
			blockTime = fmt.Sprintf("%d ms", view.ObservedBlockTimeMs)
		}

		tw.AppendRow(table.Row{
			view.Title,
			fmt.Sprintf("%d ms", view.IntervalMs),
			block,
			view.TxCount,
			blockTime,
			elapsedCell(view),
			statusCell(view),
		})
	}

	report := p.LastReport()
	if report != nil {
		footer := fmt.Sprintf("tx %s: %s", report.Handle.Hash.Hex(), report.State)
		if mint := p.MintResult(); mint != nil {
			footer = fmt.Sprintf("%s, minted in %s", footer, mint.TxHash)
		}
		tw.AppendFooter(table.Row{footer})
	}

	fmt.Fprintln(w, tw.Render())
}

func elapsedCell(view *types.CadenceView) string {
	switch {
	case view.LastElapsedMs != nil && view.ClockSkew:
		return fmt.Sprintf("%d ms (clock skew)", *view.LastElapsedMs)
	case view.LastElapsedMs != nil:
		return fmt.Sprintf("%d ms", *view.LastElapsedMs)
	case view.Unavailable:
		return "unavailable"
	}

	return "-"
}

func statusCell(view *types.CadenceView) string {
	switch {
	case view.Error != "":
		return view.Error
	case view.IsLoading:
		return "loading"
	}

	return "ok"
}
