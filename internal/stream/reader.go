package stream

import (
	"bufio"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single log line. Generator lines are small; the
// headroom covers points with large tag sets.
const maxLineBytes = 1024 * 1024

// Consumer receives decoded events during a read pass.
type Consumer interface {
	ObserveDefinition(d Definition)
	ObserveSample(s Sample)
}

// ReadStats summarizes one pass over a metrics log.
type ReadStats struct {
	Lines       int
	Definitions int
	Samples     int
	Ignored     int
	Malformed   int
}

// Reader drives a single pass over a newline-delimited metrics log,
// dispatching each decoded event to every consumer in registration order.
type Reader struct {
	log       *zap.Logger
	consumers []Consumer
}

// NewReader creates a Reader. A nil logger disables warnings.
func NewReader(log *zap.Logger, consumers ...Consumer) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log, consumers: consumers}
}

// Read consumes src to EOF. Malformed lines are logged and skipped;
// only I/O errors from the underlying reader abort the pass.
func (r *Reader) Read(src io.Reader) (ReadStats, error) {
	var stats ReadStats

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		stats.Lines++
		event, err := ParseLine(scanner.Bytes())
		if err != nil {
			stats.Malformed++
			r.log.Warn("skipping unparsable line",
				zap.Int("line", stats.Lines),
				zap.Error(err),
			)
			continue
		}

		switch ev := event.(type) {
		case *Definition:
			stats.Definitions++
			for _, c := range r.consumers {
				c.ObserveDefinition(*ev)
			}
		case *Sample:
			stats.Samples++
			for _, c := range r.consumers {
				c.ObserveSample(*ev)
			}
		default:
			stats.Ignored++
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading metrics log: %w", err)
	}
	return stats, nil
}
