// file: internal/metrics/metrics.go
// version: 1.1.0
// guid: 8c7d6e5f-4a3b-4c2d-1e0f-9a8b7c6d5e4f

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	reconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelfkeeper",
		Name:      "reconciles_total",
		Help:      "Total number of scrape reconciliations by outcome (created, updated)",
	}, []string{"outcome"})
	duplicateMerges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelfkeeper",
		Name:      "duplicate_merges_total",
		Help:      "Total number of duplicate groups folded into a keeper",
	})
	duplicatesRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelfkeeper",
		Name:      "duplicates_removed_total",
		Help:      "Total number of duplicate novel records removed by merges",
	})
	staleTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelfkeeper",
		Name:      "stale_transitions_total",
		Help:      "Total number of stale-status transitions by target status",
	}, []string{"to"})
	backupsExported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shelfkeeper",
		Name:      "backups_exported_total",
		Help:      "Total number of backup exports produced",
	})
	backupsImported = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelfkeeper",
		Name:      "backups_imported_total",
		Help:      "Total number of backup imports applied by mode",
	}, []string{"mode"})
	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shelfkeeper",
		Name:      "operation_duration_seconds",
		Help:      "Histogram of library operation durations in seconds by type",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"type"})

	novelsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shelfkeeper",
		Name:      "novels_total",
		Help:      "Current total number of novels in the library",
	})
	shelvesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shelfkeeper",
		Name:      "shelves_total",
		Help:      "Current number of shelves with at least one novel",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(reconcileTotal, duplicateMerges, duplicatesRemoved,
			staleTransitions, backupsExported, backupsImported, operationDuration,
			novelsGauge, shelvesGauge)
	})
}

// Counters
func IncReconcileCreated()            { reconcileTotal.WithLabelValues("created").Inc() }
func IncReconcileUpdated()            { reconcileTotal.WithLabelValues("updated").Inc() }
func IncDuplicateMerge(removed int)   { duplicateMerges.Inc(); duplicatesRemoved.Add(float64(removed)) }
func IncStaleTransition(to string)    { staleTransitions.WithLabelValues(to).Inc() }
func IncBackupExported()              { backupsExported.Inc() }
func IncBackupImported(mode string)   { backupsImported.WithLabelValues(mode).Inc() }

func ObserveOperationDuration(opType string, d time.Duration) {
	operationDuration.WithLabelValues(opType).Observe(d.Seconds())
}

// Gauges
func SetNovels(n int)  { novelsGauge.Set(float64(n)) }
func SetShelves(n int) { shelvesGauge.Set(float64(n)) }
