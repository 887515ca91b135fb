package stream

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Kind classifies how a metric's samples combine.
type Kind string

const (
	KindCounter Kind = "counter"
	KindGauge   Kind = "gauge"
	KindRate    Kind = "rate"
	KindTrend   Kind = "trend"
)

// Unit classifies what a metric's values measure, driving report placement.
type Unit string

const (
	UnitTime    Unit = "time"
	UnitData    Unit = "data"
	UnitCount   Unit = "count"
	UnitDefault Unit = "default"
)

// Definition declares a metric. Emitted once per name by the load
// generator before any of the metric's samples.
type Definition struct {
	Name string
	Kind Kind
	Unit Unit
}

// Sample is one numeric observation of a named metric.
// Time is epoch seconds; fractional part preserved.
type Sample struct {
	Metric string
	Time   float64
	Value  float64
	Tags   map[string]string
}

// Event is either a *Definition or a *Sample.
type Event interface {
	isEvent()
}

func (*Definition) isEvent() {}
func (*Sample) isEvent()     {}

// ParseError reports a line that could not be decoded. Parse errors are
// recoverable: callers log them and continue with the next line.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse: " + e.Reason
}

// ParseLine decodes one line of a metrics log.
//
// Returns (*Definition, nil) for "Metric" records, (*Sample, nil) for
// "Point" records, and (nil, nil) for records whose type is absent or
// unrecognized. Malformed JSON or missing required fields yield a
// *ParseError; one bad line never invalidates the rest of the log.
func ParseLine(line []byte) (Event, error) {
	if len(line) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(line) {
		return nil, &ParseError{Reason: "malformed JSON"}
	}

	typ := gjson.GetBytes(line, "type")
	if !typ.Exists() {
		return nil, nil
	}

	switch typ.String() {
	case "Metric":
		return parseDefinition(line)
	case "Point":
		return parseSample(line)
	default:
		return nil, nil
	}
}

func parseDefinition(line []byte) (Event, error) {
	name := gjson.GetBytes(line, "data.name")
	if !name.Exists() || name.String() == "" {
		return nil, &ParseError{Reason: "Metric record missing data.name"}
	}

	def := &Definition{
		Name: name.String(),
		Kind: Kind(gjson.GetBytes(line, "data.type").String()),
		Unit: Unit(gjson.GetBytes(line, "data.contains").String()),
	}
	if def.Kind == "" {
		def.Kind = KindTrend
	}
	if def.Unit == "" {
		def.Unit = UnitDefault
	}
	return def, nil
}

func parseSample(line []byte) (Event, error) {
	metric := gjson.GetBytes(line, "metric")
	if !metric.Exists() || metric.String() == "" {
		return nil, &ParseError{Reason: "Point record missing metric"}
	}

	value := gjson.GetBytes(line, "data.value")
	if !value.Exists() || value.Type != gjson.Number {
		return nil, &ParseError{Reason: fmt.Sprintf("Point %q missing numeric data.value", metric.String())}
	}

	ts, ok := parseTime(gjson.GetBytes(line, "data.time"))
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("Point %q missing parsable data.time", metric.String())}
	}

	sample := &Sample{
		Metric: metric.String(),
		Time:   ts,
		Value:  value.Float(),
	}

	tags := gjson.GetBytes(line, "data.tags")
	if tags.IsObject() {
		sample.Tags = make(map[string]string)
		tags.ForEach(func(key, val gjson.Result) bool {
			sample.Tags[key.String()] = val.String()
			return true
		})
	}
	return sample, nil
}

// parseTime accepts either a numeric epoch-seconds timestamp or an
// RFC3339 string, normalizing both to epoch seconds.
func parseTime(res gjson.Result) (float64, bool) {
	switch res.Type {
	case gjson.Number:
		return res.Float(), true
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, res.String())
		if err != nil {
			return 0, false
		}
		return float64(t.UnixNano()) / float64(time.Second), true
	default:
		return 0, false
	}
}
