// Package timeseries builds the time-bucketed series behind the report
// charts in a single pass over the event stream.
package timeseries

import (
	"math"
	"sort"

	"github.com/burnish-dev/burnish/internal/stream"
)

// Point is one chart point. Time is epoch seconds.
type Point struct {
	Time  float64 `json:"t"`
	Value float64 `json:"v"`
}

// RateBucket is one second's worth of request events.
type RateBucket struct {
	Second int64 `json:"second"`
	Count  int64 `json:"count"`
}

// DistBucket is one fixed-width latency histogram bucket, keyed by its
// inclusive lower bound.
type DistBucket struct {
	Floor float64 `json:"floor"`
	Count int64   `json:"count"`
}

// Options configures a Collector.
type Options struct {
	// Success mirrors the aggregator's filtering policy: the latency
	// scatter and the latency histogram only include samples it accepts.
	Success func(tags map[string]string) bool
	// VUMetric is the gauge tracking concurrent virtual users.
	VUMetric string
	// LatencyMetric is the per-request round-trip duration trend.
	LatencyMetric string
	// RequestsMetric is the counter incremented once per request.
	RequestsMetric string
	// StatusTag names the tag carrying the response status code.
	StatusTag string
	// BucketWidth is the latency histogram bucket width, in the log's
	// time unit. Zero means 100.
	BucketWidth float64
}

// Collector accumulates chart series. It implements stream.Consumer.
//
// The requests-per-second series assumes samples arrive in non-decreasing
// timestamp order, which holds for generator logs written live. On
// out-of-order input a late sample opens a fresh bucket for its second;
// no reordering is attempted.
type Collector struct {
	opts Options

	vus       []Point
	latencies []Point

	rps        []RateBucket
	curSecond  int64
	curCount   int64
	rpsStarted bool

	status      map[string]int64
	latencyDist map[int64]int64
}

// New creates a Collector.
func New(opts Options) *Collector {
	if opts.BucketWidth <= 0 {
		opts.BucketWidth = 100
	}
	return &Collector{
		opts:        opts,
		status:      make(map[string]int64),
		latencyDist: make(map[int64]int64),
	}
}

// ObserveDefinition is a no-op; series selection is by metric name.
func (c *Collector) ObserveDefinition(stream.Definition) {}

// ObserveSample routes one sample into the series it feeds.
func (c *Collector) ObserveSample(s stream.Sample) {
	switch s.Metric {
	case c.opts.VUMetric:
		c.vus = append(c.vus, Point{Time: s.Time, Value: s.Value})
	case c.opts.LatencyMetric:
		if c.success(s.Tags) {
			c.latencies = append(c.latencies, Point{Time: s.Time, Value: s.Value})
			idx := int64(math.Floor(s.Value / c.opts.BucketWidth))
			c.latencyDist[idx]++
		}
	case c.opts.RequestsMetric:
		c.observeRequest(s)
	}
}

func (c *Collector) observeRequest(s stream.Sample) {
	// Untagged requests still count toward the histogram so its total
	// always matches the summary request count.
	code, ok := s.Tags[c.opts.StatusTag]
	if !ok || code == "" {
		code = "unknown"
	}
	c.status[code]++

	second := int64(s.Time)
	if !c.rpsStarted {
		c.curSecond = second
		c.curCount = 1
		c.rpsStarted = true
		return
	}
	if second == c.curSecond {
		c.curCount++
		return
	}
	c.rps = append(c.rps, RateBucket{Second: c.curSecond, Count: c.curCount})
	c.curSecond = second
	c.curCount = 1
}

// Finish flushes the trailing requests-per-second bucket. Call once
// after the stream is exhausted; further observations are undefined.
func (c *Collector) Finish() {
	if c.rpsStarted {
		c.rps = append(c.rps, RateBucket{Second: c.curSecond, Count: c.curCount})
		c.rpsStarted = false
	}
}

func (c *Collector) success(tags map[string]string) bool {
	if c.opts.Success == nil {
		return false
	}
	return c.opts.Success(tags)
}

// BucketWidth returns the effective latency histogram bucket width.
func (c *Collector) BucketWidth() float64 {
	return c.opts.BucketWidth
}

// VirtualUsers returns one point per VU gauge sample, in arrival order.
func (c *Collector) VirtualUsers() []Point {
	return c.vus
}

// Latencies returns one point per successful latency sample, in arrival
// order.
func (c *Collector) Latencies() []Point {
	return c.latencies
}

// RequestRate returns the flushed per-second buckets.
func (c *Collector) RequestRate() []RateBucket {
	return c.rps
}

// StatusCounts returns the per-status-code occurrence counts.
func (c *Collector) StatusCounts() map[string]int64 {
	return c.status
}

// LatencyDistribution returns the histogram keyed by bucket floor,
// sorted ascending. Buckets are tracked by index internally so
// fractional bucket widths keep exact floors.
func (c *Collector) LatencyDistribution() []DistBucket {
	out := make([]DistBucket, 0, len(c.latencyDist))
	for idx, count := range c.latencyDist {
		out = append(out, DistBucket{Floor: float64(idx) * c.opts.BucketWidth, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Floor < out[j].Floor })
	return out
}
