package stream_test

import (
	"errors"
	"math"
	"testing"

	"github.com/burnish-dev/burnish/internal/stream"
)

func TestParseLineDefinition(t *testing.T) {
	line := []byte(`{"type":"Metric","data":{"name":"http_req_duration","type":"trend","contains":"time"}}`)

	event, err := stream.ParseLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, ok := event.(*stream.Definition)
	if !ok {
		t.Fatalf("expected *Definition, got %T", event)
	}
	if def.Name != "http_req_duration" {
		t.Errorf("expected name http_req_duration, got %q", def.Name)
	}
	if def.Kind != stream.KindTrend {
		t.Errorf("expected kind trend, got %q", def.Kind)
	}
	if def.Unit != stream.UnitTime {
		t.Errorf("expected unit time, got %q", def.Unit)
	}
}

func TestParseLineDefinitionDefaults(t *testing.T) {
	line := []byte(`{"type":"Metric","data":{"name":"custom_checks"}}`)

	event, err := stream.ParseLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := event.(*stream.Definition)
	if def.Kind != stream.KindTrend {
		t.Errorf("expected default kind trend, got %q", def.Kind)
	}
	if def.Unit != stream.UnitDefault {
		t.Errorf("expected default unit, got %q", def.Unit)
	}
}

func TestParseLineSample(t *testing.T) {
	line := []byte(`{"type":"Point","metric":"http_req_duration","data":{"time":1700000000.5,"value":42.25,"tags":{"status":"200","staticAsset":"true"}}}`)

	event, err := stream.ParseLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sample, ok := event.(*stream.Sample)
	if !ok {
		t.Fatalf("expected *Sample, got %T", event)
	}
	if sample.Metric != "http_req_duration" {
		t.Errorf("expected metric http_req_duration, got %q", sample.Metric)
	}
	if sample.Time != 1700000000.5 {
		t.Errorf("expected time 1700000000.5, got %v", sample.Time)
	}
	if sample.Value != 42.25 {
		t.Errorf("expected value 42.25, got %v", sample.Value)
	}
	if sample.Tags["status"] != "200" {
		t.Errorf("expected status tag 200, got %q", sample.Tags["status"])
	}
	if sample.Tags["staticAsset"] != "true" {
		t.Errorf("expected staticAsset tag true, got %q", sample.Tags["staticAsset"])
	}
}

func TestParseLineSampleRFC3339Time(t *testing.T) {
	line := []byte(`{"type":"Point","metric":"vus","data":{"time":"2023-11-14T22:13:20.5Z","value":10}}`)

	event, err := stream.ParseLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sample := event.(*stream.Sample)

	// 2023-11-14T22:13:20.5Z is epoch 1700000000.5.
	if math.Abs(sample.Time-1700000000.5) > 1e-6 {
		t.Errorf("expected time 1700000000.5, got %v", sample.Time)
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "garbage", line: `this is not json at all`},
		{name: "truncated object", line: `{"type":"Point","metric":`},
		{name: "metric without name", line: `{"type":"Metric","data":{"type":"gauge"}}`},
		{name: "point without metric", line: `{"type":"Point","data":{"time":1,"value":2}}`},
		{name: "point without value", line: `{"type":"Point","metric":"vus","data":{"time":1}}`},
		{name: "point with string value", line: `{"type":"Point","metric":"vus","data":{"time":1,"value":"fast"}}`},
		{name: "point without time", line: `{"type":"Point","metric":"vus","data":{"value":2}}`},
		{name: "point with bad time string", line: `{"type":"Point","metric":"vus","data":{"time":"yesterday","value":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := stream.ParseLine([]byte(tt.line))
			if err == nil {
				t.Fatalf("expected error, got event %#v", event)
			}
			var parseErr *stream.ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseLineSilentSkips(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "empty line", line: ""},
		{name: "no type field", line: `{"metric":"vus","data":{"time":1,"value":2}}`},
		{name: "unknown type", line: `{"type":"Banner","data":{"text":"hello"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := stream.ParseLine([]byte(tt.line))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event != nil {
				t.Errorf("expected nil event, got %#v", event)
			}
		})
	}
}
