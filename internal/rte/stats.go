package rte

import (
	"sync/atomic"
	"time"

	"tpcc-service/internal/models"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

type kindCounters struct {
	count        atomic.Uint64
	failures     atomic.Uint64
	clientMicros atomic.Uint64
	beginMicros  atomic.Uint64
	queryMicros  atomic.Uint64
	commitMicros atomic.Uint64
}

// Stats are the run-wide totals shared by every terminal
type Stats struct {
	kinds [kindCount]kindCounters

	// measuredNewOrders counts New-Orders completed inside the measurement window
	measuredNewOrders atomic.Uint64
	rollbacks         atomic.Uint64
}

func micros(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(seconds * 1e6)
}

func (s *Stats) success(k Kind, client time.Duration, perf *models.PerformanceMetrics) {
	c := &s.kinds[k]
	c.count.Add(1)
	c.clientMicros.Add(uint64(client.Microseconds()))
	if perf != nil {
		c.beginMicros.Add(micros(perf.Begin))
		c.queryMicros.Add(micros(perf.Query))
		c.commitMicros.Add(micros(perf.Commit))
	}
}

func (s *Stats) failure(k Kind) {
	s.kinds[k].failures.Add(1)
}

// recorder keeps one terminal's latency histograms
type recorder struct {
	hists [kindCount]*hdrhistogram.Histogram
}

// histograms track 1µs to one hour with three significant digits
func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3)
}

func newRecorder() *recorder {
	r := &recorder{}
	for i := range r.hists {
		r.hists[i] = newHistogram()
	}
	return r
}

func (r *recorder) record(k Kind, d time.Duration) {
	// out-of-range values are dropped by the histogram
	_ = r.hists[k].RecordValue(d.Microseconds())
}

func (r *recorder) merge(other *recorder) {
	for i := range r.hists {
		r.hists[i].Merge(other.hists[i])
	}
}

// KindSummary is the per-kind section of a report
type KindSummary struct {
	Kind     Kind
	Count    uint64
	Failures uint64

	AvgClient time.Duration
	AvgBegin  time.Duration
	AvgQuery  time.Duration
	AvgCommit time.Duration

	P50 time.Duration
	P90 time.Duration
	P99 time.Duration
	Max time.Duration
}

func avg(totalMicros, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalMicros/count) * time.Microsecond
}

func percentile(h *hdrhistogram.Histogram, q float64) time.Duration {
	if h.TotalCount() == 0 {
		return 0
	}
	return time.Duration(h.ValueAtQuantile(q)) * time.Microsecond
}

// summarize combines the shared counters with the merged histograms
func (s *Stats) summarize(r *recorder) []KindSummary {
	out := make([]KindSummary, kindCount)
	for i := range out {
		c := &s.kinds[i]
		count := c.count.Load()
		h := r.hists[i]
		out[i] = KindSummary{
			Kind:      Kind(i),
			Count:     count,
			Failures:  c.failures.Load(),
			AvgClient: avg(c.clientMicros.Load(), count),
			AvgBegin:  avg(c.beginMicros.Load(), count),
			AvgQuery:  avg(c.queryMicros.Load(), count),
			AvgCommit: avg(c.commitMicros.Load(), count),
			P50:       percentile(h, 50),
			P90:       percentile(h, 90),
			P99:       percentile(h, 99),
		}
		if h.TotalCount() > 0 {
			out[i].Max = time.Duration(h.Max()) * time.Microsecond
		}
	}
	return out
}
