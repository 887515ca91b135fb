package aggregate

import (
	"fmt"
	"io"
)

// DumpHDR writes the latency histogram as an HDR percentile-distribution
// table (the same format wrk2 and other HDR-based tools emit). The
// histogram is an approximate sketch fed from successful samples of the
// filtered metrics; report statistics use the exact retained samples
// instead.
func (a *Aggregator) DumpHDR(w io.Writer) error {
	if a.hdr.TotalCount() == 0 {
		_, err := fmt.Fprintln(w, "no latency samples recorded")
		return err
	}
	_, err := a.hdr.PercentilesPrint(w, 5, 1.0)
	if err != nil {
		return fmt.Errorf("writing HDR distribution: %w", err)
	}
	return nil
}
