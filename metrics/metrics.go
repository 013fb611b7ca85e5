package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FlashRaceNamespace is the namespace for all flashrace metrics
const FlashRaceNamespace = "flashrace"

const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

var (
	PollRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: FlashRaceNamespace,
		Name:      "poll_requests_total",
		Help:      "Count of completed latest block requests by cadence and result",
	}, []string{"cadence", "result"})
	PollSkippedTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: FlashRaceNamespace,
		Name:      "poll_skipped_ticks_total",
		Help:      "Count of ticks skipped because the previous request was still in flight",
	}, []string{"cadence"})
	LatestBlockNumber = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: FlashRaceNamespace,
		Name:      "latest_block_number",
		Help:      "Latest block number observed by each cadence",
	}, []string{"cadence"})
	RaceElapsedMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: FlashRaceNamespace,
		Name:      "race_elapsed_ms",
		Help:      "Time between broadcast and first snapshot including the transaction",
		Buckets:   []float64{50, 100, 200, 400, 800, 1600, 3200, 6400},
	}, []string{"cadence"})
	RaceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: FlashRaceNamespace,
		Name:      "race_outcomes_total",
		Help:      "Count of finished races by terminal state",
	}, []string{"state"})
	RaceClockSkews = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: FlashRaceNamespace,
		Name:      "race_clock_skew_total",
		Help:      "Count of results whose snapshot was observed before the broadcast time",
	}, []string{"cadence"})
)
