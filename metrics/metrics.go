// Package metrics wires the snapshot core's counters and gauges onto
// Prometheus collectors, using the direct prometheus.New*/MustRegister
// style rather than promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric attemptSnapshot and its collaborators
// emit. A process constructs exactly one and shares it across
// components; tests construct their own with NewRegistry to avoid
// colliding on the default global registerer.
type Registry struct {
	SnapshotCount      prometheus.Counter
	LastSnapshotHash   *prometheus.GaugeVec
	LastSnapshotHeight prometheus.Gauge
	NextSnapshotHeight prometheus.Gauge

	Accepted             prometheus.Gauge
	Awaiting             prometheus.Gauge
	WaitingForAcceptance prometheus.Gauge

	SnapshotWriteToDiskSuccess prometheus.Counter
	SnapshotWriteToDiskFailure prometheus.Counter

	SnapshotHeightIntervalConditionMet    prometheus.Counter
	SnapshotHeightIntervalConditionNotMet prometheus.Counter
	SnapshotNoBlocksWithinHeightInterval  prometheus.Counter
	SnapshotInvalidData                   prometheus.Counter
	SnapshotCBAcceptQueryFailed           prometheus.Counter

	MinTipHeight     prometheus.Gauge
	MinWaitingHeight prometheus.Gauge
}

// NewRegistry builds every collector and registers it against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		SnapshotCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotCount", Help: "Total number of snapshots successfully committed.",
		}),
		LastSnapshotHash: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lastSnapshotHash", Help: "Info-style gauge: 1 on the time series labeled with the current snapshot hash.",
		}, []string{"hash"}),
		LastSnapshotHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lastSnapshotHeight", Help: "Height of the most recently committed snapshot.",
		}),
		NextSnapshotHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nextSnapshotHeight", Help: "Height the next snapshot attempt will target.",
		}),
		Accepted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "accepted", Help: "Number of checkpoint blocks currently in the accepted state.",
		}),
		Awaiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "awaiting", Help: "Number of checkpoint blocks currently awaiting validation.",
		}),
		WaitingForAcceptance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "waitingForAcceptance", Help: "Number of checkpoint blocks waiting on dependencies before acceptance.",
		}),
		SnapshotWriteToDiskSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotWriteToDisk_success", Help: "Successful snapshot/snapshot-info disk writes.",
		}),
		SnapshotWriteToDiskFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotWriteToDisk_failure", Help: "Snapshot/snapshot-info disk writes that exhausted their retries.",
		}),
		SnapshotHeightIntervalConditionMet: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotHeightIntervalConditionMet", Help: "attemptSnapshot passes where the tip-height interval condition held.",
		}),
		SnapshotHeightIntervalConditionNotMet: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotHeightIntervalConditionNotMet", Help: "attemptSnapshot passes rejected by the tip-height interval condition.",
		}),
		SnapshotNoBlocksWithinHeightInterval: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotNoBlocksWithinHeightInterval", Help: "attemptSnapshot passes with accepted blocks but none inside the target height interval.",
		}),
		SnapshotInvalidData: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotInvalidData", Help: "Checkpoint blocks referenced by the accepted set but missing from storage.",
		}),
		SnapshotCBAcceptQueryFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snapshotCBAcceptQueryFailed", Help: "Failed queries against the checkpoint-acceptance pipeline.",
		}),
		MinTipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minTipHeight", Help: "Minimum height across current DAG tips.",
		}),
		MinWaitingHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minWaitingHeight", Help: "Minimum height across checkpoints waiting for acceptance.",
		}),
	}

	reg.MustRegister(
		m.SnapshotCount, m.LastSnapshotHash, m.LastSnapshotHeight, m.NextSnapshotHeight,
		m.Accepted, m.Awaiting, m.WaitingForAcceptance,
		m.SnapshotWriteToDiskSuccess, m.SnapshotWriteToDiskFailure,
		m.SnapshotHeightIntervalConditionMet, m.SnapshotHeightIntervalConditionNotMet,
		m.SnapshotNoBlocksWithinHeightInterval, m.SnapshotInvalidData, m.SnapshotCBAcceptQueryFailed,
		m.MinTipHeight, m.MinWaitingHeight,
	)
	return m
}

// SetLastSnapshotHash implements the info-metric pattern: every
// previously-seen hash's series is dropped, and the series for the
// current hash reads 1.
func (m *Registry) SetLastSnapshotHash(hash string) {
	m.LastSnapshotHash.Reset()
	m.LastSnapshotHash.WithLabelValues(hash).Set(1)
}
