package rte

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Report is the outcome of a run
type Report struct {
	ScaleFactor int
	Terminals   int
	Measure     time.Duration
	Elapsed     time.Duration

	MeasuredNewOrders uint64
	Rollbacks         uint64
	// TpmC is New-Orders completed per minute of the measurement window
	TpmC float64

	Kinds []KindSummary
}

// Kind returns the summary of one transaction kind
func (r *Report) Kind(k Kind) KindSummary {
	for _, s := range r.Kinds {
		if s.Kind == k {
			return s
		}
	}
	return KindSummary{Kind: k}
}

func ms(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64)
}

// Render prints the throughput summary and a per-kind latency table in milliseconds
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "scale factor: %d, terminals: %d, measured %s of %s\n",
		r.ScaleFactor, r.Terminals, r.Measure, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "tpmC: %.1f (%d New-Orders in window, %d rolled back overall)\n",
		r.TpmC, r.MeasuredNewOrders, r.Rollbacks)

	tb := tablewriter.NewWriter(w)
	tb.SetHeader([]string{"Transaction", "Count", "Failed", "Avg", "Begin", "Query", "Commit", "P50", "P90", "P99", "Max"})
	for _, s := range r.Kinds {
		tb.Append([]string{
			s.Kind.String(),
			strconv.FormatUint(s.Count, 10),
			strconv.FormatUint(s.Failures, 10),
			ms(s.AvgClient),
			ms(s.AvgBegin),
			ms(s.AvgQuery),
			ms(s.AvgCommit),
			ms(s.P50),
			ms(s.P90),
			ms(s.P99),
			ms(s.Max),
		})
	}
	tb.Render()
}
