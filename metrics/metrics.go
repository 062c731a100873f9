// Package metrics counts what a run tolerated on its way to the output:
// malformed and filtered metadata rows, waveform store misses, and the events
// that made it into each bundle.
//
// Every run owns its registry. Batch runs have no scrape endpoint, so the
// registry is dumped with WriteToTextfile for the node exporter textfile
// collector.
//
// Metrics exposed:
//   - waveset_metadata_rows_total: rows read by table and outcome (loaded, malformed, filtered)
//   - waveset_store_misses_total: draws discarded because the waveform was missing, by type
//   - waveset_events_total: events accumulated by type
//   - waveset_pool_remaining: records left in each pool after sampling
//   - waveset_bundle_events: events written to each bundle
//
// All methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fulldump/waveset/metadata"
)

type Metrics struct {
	Registry *prometheus.Registry

	MetadataRows  *prometheus.CounterVec
	StoreMisses   *prometheus.CounterVec
	Events        *prometheus.CounterVec
	PoolRemaining *prometheus.GaugeVec
	BundleEvents  *prometheus.GaugeVec
}

func New() *Metrics {

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,

		MetadataRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waveset_metadata_rows_total",
			Help: "Metadata rows read by table and outcome",
		}, []string{"table", "outcome"}),

		StoreMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waveset_store_misses_total",
			Help: "Draws discarded because the waveform is not in its store",
		}, []string{"type"}),

		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waveset_events_total",
			Help: "Events accumulated by type",
		}, []string{"type"}),

		PoolRemaining: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "waveset_pool_remaining",
			Help: "Records left in each pool after sampling",
		}, []string{"type"}),

		BundleEvents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "waveset_bundle_events",
			Help: "Events written to each bundle",
		}, []string{"bundle"}),
	}
}

func (m *Metrics) RecordLoad(report *metadata.Report) {
	if m == nil || report == nil {
		return
	}
	m.MetadataRows.WithLabelValues(report.Kind, "loaded").Add(float64(report.Loaded))
	m.MetadataRows.WithLabelValues(report.Kind, "malformed").Add(float64(report.Malformed))
	m.MetadataRows.WithLabelValues(report.Kind, "filtered").Add(float64(report.Filtered))
}

func (m *Metrics) RecordMiss(kind string) {
	if m == nil {
		return
	}
	m.StoreMisses.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetPoolRemaining(kind string, n int) {
	if m == nil {
		return
	}
	m.PoolRemaining.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) SetBundleEvents(bundle string, n int) {
	if m == nil {
		return
	}
	m.BundleEvents.WithLabelValues(bundle).Set(float64(n))
}

func (m *Metrics) WriteToTextfile(filename string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(filename, m.Registry)
}
