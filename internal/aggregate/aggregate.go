package aggregate

import (
	"math"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/burnish-dev/burnish/internal/stream"
)

// Predicate decides whether a sample's tag set represents a successful
// outcome.
type Predicate func(tags map[string]string) bool

// MatchTag returns a Predicate accepting samples whose tag key carries
// one of the given values. The aggregator itself never assumes any
// particular success convention; callers build one here or supply their
// own.
func MatchTag(key string, values ...string) Predicate {
	accept := make(map[string]struct{}, len(values))
	for _, v := range values {
		accept[v] = struct{}{}
	}
	return func(tags map[string]string) bool {
		v, ok := tags[key]
		if !ok {
			return false
		}
		_, ok = accept[v]
		return ok
	}
}

// Options configures an Aggregator.
type Options struct {
	// Success classifies a sample's outcome. Applied to samples of
	// Filtered metrics and to the requests metric's status accounting.
	Success Predicate
	// Filtered names the metrics whose samples only count toward
	// statistics when Success accepts them (latency-class metrics).
	// Metrics outside the set aggregate unconditionally.
	Filtered []string
	// RequestsMetric is the counter incremented once per request.
	RequestsMetric string
	// DataSentMetric and DataReceivedMetric accumulate transfer totals.
	DataSentMetric     string
	DataReceivedMetric string
}

// Summary holds the statistics derived from one metric's retained samples.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Sum    float64 `json:"sum" yaml:"sum"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P90    float64 `json:"p90" yaml:"p90"`
	P95    float64 `json:"p95" yaml:"p95"`
	P99    float64 `json:"p99" yaml:"p99"`
}

// Metric is one named metric's definition plus its retained samples.
// Samples are held in arrival order for the whole run; percentiles are
// recomputed from scratch on each Compute call.
type Metric struct {
	Def     stream.Definition
	samples []float64

	// declared is false while the definition is the placeholder created
	// for a Point that arrived before its Metric record.
	declared bool
}

// Values returns the retained samples in arrival order. The slice is
// shared; callers must not mutate it.
func (m *Metric) Values() []float64 {
	return m.samples
}

// Compute derives statistics over the metric's retained samples using
// nearest-rank percentiles: the value at sorted index floor(N*p).
// Returns ok=false when no samples were retained; the zero Summary must
// be rendered as an explicit "no data" state, never as zeros.
func (m *Metric) Compute() (Summary, bool) {
	n := len(m.samples)
	if n == 0 {
		return Summary{}, false
	}

	sorted := make([]float64, n)
	copy(sorted, m.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	s := Summary{
		Count:  n,
		Sum:    sum,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Median: median(sorted),
		P90:    nearestRank(sorted, 0.90),
		P95:    nearestRank(sorted, 0.95),
		P99:    nearestRank(sorted, 0.99),
	}
	return s, true
}

// nearestRank returns sorted[floor(N*p)], clamped to the last element.
func nearestRank(sorted []float64, p float64) float64 {
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Totals carries the run-level counters derived from the requests and
// data metrics.
type Totals struct {
	Requests     int64
	Successes    int64
	Failures     int64
	BytesSent    float64
	BytesRecv    float64
	FirstSample  float64
	LastSample   float64
	SampleSpanOK bool
}

// Aggregator accumulates per-metric sample sets over one parse pass.
// It implements stream.Consumer. State is explicit and local to one run;
// construct a fresh Aggregator per input.
type Aggregator struct {
	opts     Options
	filtered map[string]struct{}
	metrics  map[string]*Metric
	order    []string
	totals   Totals
	hdr      *hdrhistogram.Histogram
}

// New creates an Aggregator. A nil Success predicate rejects everything,
// so filtered metrics would retain no samples; callers normally supply
// MatchTag("status", "200") or equivalent.
func New(opts Options) *Aggregator {
	filtered := make(map[string]struct{}, len(opts.Filtered))
	for _, name := range opts.Filtered {
		filtered[name] = struct{}{}
	}
	return &Aggregator{
		opts:     opts,
		filtered: filtered,
		metrics:  make(map[string]*Metric),
		// Latency values from 1 up to 1h at millisecond scale,
		// 3 significant figures.
		hdr: hdrhistogram.New(1, 3_600_000, 3),
	}
}

// ObserveDefinition registers a metric definition. The first definition
// for a name wins; later ones are ignored.
func (a *Aggregator) ObserveDefinition(d stream.Definition) {
	if m, ok := a.metrics[d.Name]; ok {
		if !m.declared {
			m.Def = d
			m.declared = true
		}
		return
	}
	a.metrics[d.Name] = &Metric{Def: d, declared: true}
	a.order = append(a.order, d.Name)
}

// ObserveSample attributes one sample to its metric, honoring the
// filtering policy, and updates the run totals.
func (a *Aggregator) ObserveSample(s stream.Sample) {
	m, ok := a.metrics[s.Metric]
	if !ok {
		// Point before its Metric definition: register with defaults.
		m = &Metric{Def: stream.Definition{
			Name: s.Metric,
			Kind: stream.KindTrend,
			Unit: stream.UnitDefault,
		}}
		a.metrics[s.Metric] = m
		a.order = append(a.order, s.Metric)
	}

	if !a.totals.SampleSpanOK || s.Time < a.totals.FirstSample {
		a.totals.FirstSample = s.Time
	}
	if !a.totals.SampleSpanOK || s.Time > a.totals.LastSample {
		a.totals.LastSample = s.Time
	}
	a.totals.SampleSpanOK = true

	switch s.Metric {
	case a.opts.RequestsMetric:
		a.totals.Requests++
		if a.success(s.Tags) {
			a.totals.Successes++
		} else {
			a.totals.Failures++
		}
	case a.opts.DataSentMetric:
		a.totals.BytesSent += s.Value
	case a.opts.DataReceivedMetric:
		a.totals.BytesRecv += s.Value
	}

	if _, filtered := a.filtered[s.Metric]; filtered {
		if !a.success(s.Tags) {
			return
		}
		if v := int64(math.Round(s.Value)); v > 0 {
			if v > a.hdr.HighestTrackableValue() {
				v = a.hdr.HighestTrackableValue()
			}
			_ = a.hdr.RecordValue(v)
		}
	}

	m.samples = append(m.samples, s.Value)
}

func (a *Aggregator) success(tags map[string]string) bool {
	if a.opts.Success == nil {
		return false
	}
	return a.opts.Success(tags)
}

// Metric returns the named metric, or nil if never seen.
func (a *Aggregator) Metric(name string) *Metric {
	return a.metrics[name]
}

// Metrics returns all metrics in first-seen order.
func (a *Aggregator) Metrics() []*Metric {
	out := make([]*Metric, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.metrics[name])
	}
	return out
}

// Totals returns the run-level counters.
func (a *Aggregator) Totals() Totals {
	return a.totals
}
