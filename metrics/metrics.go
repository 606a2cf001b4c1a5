// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics exports gpucache statistics to Prometheus.
//
// Metrics are updated at flush boundaries through a gpucache.FlushObserver,
// so the rendering goroutine never blocks on a scrape:
//
//	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
//	ctx := gpucache.NewContext(
//	    gpucache.WithName("ui"),
//	    gpucache.WithFlushObserver(m.Observer("ui")),
//	)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/gpucache"
)

// Metrics holds all Prometheus metrics for resource caches. Every metric
// is labeled with the name of the context it describes.
type Metrics struct {
	Resources     *prometheus.GaugeVec
	Bytes         *prometheus.GaugeVec
	Purgeable     *prometheus.GaugeVec
	BudgetCount   *prometheus.GaugeVec
	BudgetBytes   *prometheus.GaugeVec
	PeakBytes     *prometheus.GaugeVec
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Evictions     *prometheus.CounterVec
	Purges        *prometheus.CounterVec
	Flushes       *prometheus.CounterVec
	FlushEvicted  *prometheus.HistogramVec
	OverBudgetNow *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"context"}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gpucache",
			Name:      name,
			Help:      help,
		}, labels)
	}
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gpucache",
			Name:      name,
			Help:      help,
		}, labels)
	}

	m := &Metrics{
		Resources:     gauge("budgeted_resources", "Budgeted resident resources after the last flush"),
		Bytes:         gauge("budgeted_bytes", "Budgeted resident bytes after the last flush"),
		Purgeable:     gauge("purgeable_resources", "Unlocked resident resources after the last flush"),
		BudgetCount:   gauge("budget_resources", "Configured maximum resource count"),
		BudgetBytes:   gauge("budget_bytes", "Configured maximum bytes"),
		PeakBytes:     gauge("peak_bytes", "Largest resident size seen"),
		Hits:          counter("hits_total", "Lookups served by a resident resource"),
		Misses:        counter("misses_total", "Lookups that required a new resource"),
		Evictions:     counter("evictions_total", "Resources destroyed to satisfy the budget"),
		Purges:        counter("purges_total", "Resources destroyed for any reason"),
		Flushes:       counter("flushes_total", "Completed flushes"),
		OverBudgetNow: gauge("over_budget", "1 if the cache stayed over budget after the last flush"),
		FlushEvicted: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gpucache",
			Name:      "flush_purged_resources",
			Help:      "Resources purged per flush",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, labels),
	}

	reg.MustRegister(
		m.Resources, m.Bytes, m.Purgeable, m.BudgetCount, m.BudgetBytes, m.PeakBytes,
		m.Hits, m.Misses, m.Evictions, m.Purges, m.Flushes, m.FlushEvicted, m.OverBudgetNow,
	)
	return m
}

// Observer returns a flush observer that records the stats of the context
// named name. Counters advance by the difference to the previous flush;
// a drop (after ResetStats) starts over from the new value.
func (m *Metrics) Observer(name string) gpucache.FlushObserver {
	return &observer{m: m, name: name}
}

type observer struct {
	m    *Metrics
	name string

	mu   sync.Mutex
	last gpucache.Stats
}

func delta(cur, prev uint64) float64 {
	if cur < prev {
		return float64(cur)
	}
	return float64(cur - prev)
}

func (o *observer) ObserveFlush(info gpucache.FlushInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := info.Stats
	m := o.m
	m.Resources.WithLabelValues(o.name).Set(float64(s.BudgetedCount))
	m.Bytes.WithLabelValues(o.name).Set(float64(s.BudgetedBytes))
	m.Purgeable.WithLabelValues(o.name).Set(float64(s.PurgeableCount))
	m.BudgetCount.WithLabelValues(o.name).Set(float64(s.MaxCount))
	m.BudgetBytes.WithLabelValues(o.name).Set(float64(s.MaxBytes))
	m.PeakBytes.WithLabelValues(o.name).Set(float64(s.PeakBytes))

	m.Hits.WithLabelValues(o.name).Add(delta(s.Hits, o.last.Hits))
	m.Misses.WithLabelValues(o.name).Add(delta(s.Misses, o.last.Misses))
	m.Evictions.WithLabelValues(o.name).Add(delta(s.Evictions, o.last.Evictions))
	m.Purges.WithLabelValues(o.name).Add(delta(s.Purges, o.last.Purges))
	m.Flushes.WithLabelValues(o.name).Inc()
	m.FlushEvicted.WithLabelValues(o.name).Observe(float64(info.Purged))

	over := 0.0
	if s.OverBudget() {
		over = 1
	}
	m.OverBudgetNow.WithLabelValues(o.name).Set(over)

	o.last = s
}
