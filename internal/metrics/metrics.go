// Package metrics defines the Prometheus collectors of the translation memory.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hyperjump/transmem/internal/models"
)

const namespace = "transmem"

// StoreOutcome labels the result of a Store call.
type StoreOutcome string

const (
	StoreCreated   StoreOutcome = "created"
	StoreAppended  StoreOutcome = "appended"
	StoreUnchanged StoreOutcome = "unchanged"
	StoreFailed    StoreOutcome = "failed"
)

// Collector holds all collectors of the translation memory.
type Collector struct {
	LookupsTotal   *prometheus.CounterVec
	LookupScore    prometheus.Histogram
	StoresTotal    *prometheus.CounterVec
	FuzzyTrials    *prometheus.CounterVec
	OpenInstances  prometheus.Gauge
	ImportedTotal  prometheus.Counter
	ImportFailures prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total lookups by language and outcome (exact, fuzzy, none).",
			},
			[]string{"lang", "outcome"},
		),
		LookupScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_score",
				Help:      "Score of lookups that found a translation.",
				Buckets:   []float64{1, 10, 25, 50, 75, 90, 99, 100},
			},
		),
		StoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stores_total",
				Help:      "Total store calls by language and outcome (created, appended, unchanged, failed).",
			},
			[]string{"lang", "outcome"},
		),
		FuzzyTrials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fuzzy_trials_total",
				Help:      "Total fuzzy trial probes by result (hit, miss).",
			},
			[]string{"result"},
		),
		OpenInstances: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_instances",
				Help:      "Number of translation memory instances currently open.",
			},
		),
		ImportedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_units_total",
				Help:      "Total translation units imported from TMX files.",
			},
		),
		ImportFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_failures_total",
				Help:      "Total TMX files that failed to import.",
			},
		),
	}

	for _, col := range []prometheus.Collector{
		c.LookupsTotal,
		c.LookupScore,
		c.StoresTotal,
		c.FuzzyTrials,
		c.OpenInstances,
		c.ImportedTotal,
		c.ImportFailures,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveLookup records one lookup result.
func (c *Collector) ObserveLookup(lang string, res *models.LookupResult) {
	if c == nil || res == nil {
		return
	}
	c.LookupsTotal.WithLabelValues(lang, string(res.Match)).Inc()
	if res.Score > models.NoMatchScore {
		c.LookupScore.Observe(float64(res.Score))
	}
}

// ObserveStore records one store call.
func (c *Collector) ObserveStore(lang string, outcome StoreOutcome) {
	if c == nil {
		return
	}
	c.StoresTotal.WithLabelValues(lang, string(outcome)).Inc()
}

// ObserveTrial records one fuzzy trial probe.
func (c *Collector) ObserveTrial(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.FuzzyTrials.WithLabelValues(result).Inc()
}

// InstanceOpened and InstanceClosed track live instances.
func (c *Collector) InstanceOpened() {
	if c != nil {
		c.OpenInstances.Inc()
	}
}

func (c *Collector) InstanceClosed() {
	if c != nil {
		c.OpenInstances.Dec()
	}
}

// ObserveImport records the outcome of importing one file.
func (c *Collector) ObserveImport(units int, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.ImportFailures.Inc()
		return
	}
	c.ImportedTotal.Add(float64(units))
}

// WriteText writes every metric family of g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
